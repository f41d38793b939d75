// Command blogctl performs administrative tasks against the blog database.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"gorm.io/gorm"

	"github.com/Winter-Krimmert/Advanced-Blog-API/config"
	"github.com/Winter-Krimmert/Advanced-Blog-API/models"
	"github.com/Winter-Krimmert/Advanced-Blog-API/utils"
)

const usage = `usage: blogctl <command> [flags]

commands:
  genkey   [-length n]                       print a random signing secret
  adduser  -name -username -email -password  create a user
  users                                      list users
  resetdb  [-seed]                           drop and recreate all tables
`

// Seed account created by resetdb -seed.
const (
	seedName     = "Test User"
	seedUsername = "testuser"
	seedEmail    = "testuser@example.com"
	seedPassword = "testpassword"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "blogctl:", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(out, usage)
		return errors.New("missing command")
	}
	cmd, rest := args[0], args[1:]

	if cmd == "genkey" {
		return genKey(rest, out)
	}

	var handler func(*gorm.DB, []string, io.Writer) error
	switch cmd {
	case "adduser":
		handler = addUser
	case "users":
		handler = listUsers
	case "resetdb":
		handler = resetDB
	case "help", "-h", "--help":
		fmt.Fprint(out, usage)
		return nil
	default:
		fmt.Fprint(out, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}

	// database commands never sign tokens, so a missing secret is tolerated
	cfg, err := config.Load()
	if err != nil && !errors.Is(err, config.ErrMissingSecret) {
		return err
	}
	db, err := config.OpenDatabase(cfg)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	if err := config.Migrate(db); err != nil {
		return err
	}
	return handler(db, rest, out)
}

func genKey(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("genkey", flag.ContinueOnError)
	length := fs.Int("length", 32, "number of characters")
	if err := fs.Parse(args); err != nil {
		return err
	}
	key, err := utils.GenerateSecretKey(*length)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, key)
	return nil
}

func addUser(db *gorm.DB, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("adduser", flag.ContinueOnError)
	name := fs.String("name", "", "display name")
	username := fs.String("username", "", "login name")
	email := fs.String("email", "", "email address")
	password := fs.String("password", "", "plain-text password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*username) == "" || strings.TrimSpace(*email) == "" || *password == "" {
		return errors.New("adduser: -username, -email and -password are required")
	}
	if *name == "" {
		*name = *username
	}
	user, err := insertUser(db, *name, *username, *email, *password)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "created user %d (%s)\n", user.ID, user.Username)
	return nil
}

func listUsers(db *gorm.DB, _ []string, out io.Writer) error {
	var users []models.User
	if err := db.Order("id ASC").Find(&users).Error; err != nil {
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tUSERNAME\tEMAIL\tNAME")
	for _, u := range users {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", u.ID, u.Username, u.Email, u.Name)
	}
	return tw.Flush()
}

func resetDB(db *gorm.DB, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("resetdb", flag.ContinueOnError)
	seed := fs.Bool("seed", false, "create the test account after reset")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := config.Reset(db); err != nil {
		return err
	}
	fmt.Fprintln(out, "database reset")
	if *seed {
		user, err := insertUser(db, seedName, seedUsername, seedEmail, seedPassword)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "seeded user %d (%s)\n", user.ID, user.Username)
	}
	return nil
}

func insertUser(db *gorm.DB, name, username, email, password string) (*models.User, error) {
	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := models.User{
		Name:         strings.TrimSpace(name),
		Username:     strings.TrimSpace(username),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: hash,
	}
	if err := db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("user %q or email %q already exists", username, email)
		}
		return nil, err
	}
	return &user, nil
}
