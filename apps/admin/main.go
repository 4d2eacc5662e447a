package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/drivingschool/core"
	"github.com/trezcool/drivingschool/core/schedule"
	"github.com/trezcool/drivingschool/core/student"
	"github.com/trezcool/drivingschool/core/user"
	logsvc "github.com/trezcool/drivingschool/services/logger"
	"github.com/trezcool/drivingschool/storage"
)

func main() {
	conf, err := core.NewConfig()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, flush, err := logsvc.New(conf, "ADMIN")
	if err != nil {
		log.Fatalf("setting up logger: %v", err)
	}

	// migrations are run on demand here
	repos, err := storage.Open(context.Background(), conf, false)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up storage: %v", err), err)
	}

	catalog, err := schedule.LoadCatalog(conf.Schedule.CatalogFile)
	if err != nil {
		logger.Fatal(fmt.Sprintf("loading catalog: %v", err), err)
	}

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	usrSvc := user.NewService(repos.Users)
	cli := commandLine{
		usrSvc: usrSvc,
		studentSvc: student.NewService(
			repos.Students,
			usrSvc,
			catalog.Rules(conf.Schedule.Location()),
			student.Options{RejectDuplicates: conf.Schedule.RejectDuplicates},
		),
		catalog:    catalog,
		validate:   validate,
		translator: translator,
	}
	if repos.DB != nil {
		cli.db = repos.DB.DB
	}

	err = cli.run(os.Args)
	if err != nil && err != errHelp {
		logger.Error("admin command failed", err)
		fmt.Printf("\nerror: %s\n", err)
	}

	if cErr := repos.Close(); cErr != nil {
		logger.Error("closing storage", cErr)
	}
	flush()
	if err != nil {
		os.Exit(1)
	}
}
