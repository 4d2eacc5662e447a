package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"strings"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/trezcool/drivingschool/core/schedule"
	"github.com/trezcool/drivingschool/core/student"
	"github.com/trezcool/drivingschool/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp       = errors.New("help provided")
	errNoDatabase = errors.New("migrations need AUTH_MODE=db")
)

type commandLine struct {
	db         *sql.DB // nil in file mode
	usrSvc     user.ServiceInterface
	studentSvc student.ServiceInterface
	catalog    schedule.Catalog
	validate   *validator.Validate
	translator ut.Translator
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  adduser -first NAME -last NAME [-middle NAME] -email EMAIL -phone PHONE [-group GROUP] [-staff] - register a user")
	fmt.Println("  resetpassword -login EMAIL|PHONE - reset user's password")
	fmt.Println("  export -out FILE.xlsx - export students, payments and bookings")
	fmt.Println("  migrate COMMAND [ARGS] - run goose database migrations (up, down, status, ...)")
}

// promptPassword reads a password without echoing it. An empty password prints the usage.
func promptPassword(fs *flag.FlagSet) (string, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	if len(pwd) == 0 {
		fs.Usage()
		return "", errHelp
	}
	return string(pwd), nil
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}
	ctx := context.Background()

	addUserCmd := flag.NewFlagSet("adduser", flag.ContinueOnError)
	addUserFirst := addUserCmd.String("first", "", "First name.")
	addUserLast := addUserCmd.String("last", "", "Last name.")
	addUserMiddle := addUserCmd.String("middle", "", "Middle name.")
	addUserEmail := addUserCmd.String("email", "", "Email address.")
	addUserPhone := addUserCmd.String("phone", "", "Phone number.")
	addUserAddress := addUserCmd.String("address", "", "Postal address.")
	addUserGroup := addUserCmd.String("group", "", "Study group (students only).")
	addUserStaff := addUserCmd.Bool("staff", false, "Register a staff member (instructor) instead of a student.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordLogin := resetPasswordCmd.String("login", "", "The user's email or phone. The password will be prompted next.")

	exportCmd := flag.NewFlagSet("export", flag.ContinueOnError)
	exportOut := exportCmd.String("out", "students.xlsx", "Path of the workbook to write.")

	switch args[1] {
	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *addUserEmail == "" && *addUserPhone == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := promptPassword(addUserCmd)
		if err != nil {
			return err
		}
		nu := newUser{
			FirstName:  *addUserFirst,
			LastName:   *addUserLast,
			MiddleName: *addUserMiddle,
			Email:      *addUserEmail,
			Phone:      *addUserPhone,
			Address:    *addUserAddress,
			Group:      *addUserGroup,
			Password:   pwd,
			Staff:      *addUserStaff,
		}
		return cli.addUser(ctx, nu)

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *resetPasswordLogin == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := promptPassword(resetPasswordCmd)
		if err != nil {
			return err
		}
		return cli.resetPassword(ctx, *resetPasswordLogin, pwd)

	case "export":
		if err := exportCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if !strings.HasSuffix(*exportOut, ".xlsx") {
			exportCmd.Usage()
			return errHelp
		}
		return cli.export(ctx, *exportOut)

	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(ctx, args[2:])

	default:
		cli.printUsage()
		return errHelp
	}
}
