package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"expense-ledger/internal/auth"
	"expense-ledger/internal/storage"

	"golang.org/x/term"
)

const defaultDatabase = "expenses.db"

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("adduser", flag.ContinueOnError)
	fs.SetOutput(stderr)

	emailFlag := fs.String("email", "", "Email address to register")
	passwordFlag := fs.String("password", "", "Password (optional, will prompt if omitted)")
	dsn := fs.String("db", defaultDatabase, "Database file path or postgres:// URL")

	if err := fs.Parse(args); err != nil {
		return err
	}

	email := strings.ToLower(strings.TrimSpace(*emailFlag))
	if email == "" {
		fmt.Fprintln(stdout, "Usage: adduser -email <email> [-password <password>] [-db <dsn>]")
		fs.PrintDefaults()
		return fmt.Errorf("missing required flags: email")
	}
	if !strings.Contains(email, "@") {
		return fmt.Errorf("invalid email %q", email)
	}

	password := *passwordFlag
	if password == "" {
		fmt.Fprint(stdout, "Password: ")
		var err error
		password, err = readPassword(stdin)
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(stdout)
	}

	if err := auth.ValidatePassword(password); err != nil {
		return err
	}

	// DATABASE_URL applies unless -db was given explicitly.
	if url := os.Getenv("DATABASE_URL"); url != "" && *dsn == defaultDatabase {
		*dsn = url
	}

	db, err := storage.NewDB(*dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := db.CreateUser(context.Background(), email, hash)
	if errors.Is(err, storage.ErrConflict) {
		return fmt.Errorf("user %s already exists", email)
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Fprintf(stdout, "User %s created successfully with ID %d\n", user.Email, user.ID)
	return nil
}

func readPassword(stdin io.Reader) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		bytePassword, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(bytePassword), nil
	}

	// Pipes and tests.
	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
