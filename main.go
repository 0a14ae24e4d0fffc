package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/op/go-logging"
	"github.com/spf13/cobra"

	"github.com/taskwire/taskwire/config"
	"github.com/taskwire/taskwire/database"
	"github.com/taskwire/taskwire/logger"
	"github.com/taskwire/taskwire/web"
	"github.com/taskwire/taskwire/web/service"
)

func runWebServer() {
	log.Printf("%v %v", config.GetName(), config.GetVersion())

	switch config.GetLogLevel() {
	case config.Debug:
		logger.InitLogger(logging.DEBUG)
	case config.Info:
		logger.InitLogger(logging.INFO)
	case config.Notice:
		logger.InitLogger(logging.NOTICE)
	case config.Warn:
		logger.InitLogger(logging.WARNING)
	case config.Error:
		logger.InitLogger(logging.ERROR)
	default:
		log.Fatal("unknown log level:", config.GetLogLevel())
	}
	defer logger.CloseLogger()

	if err := database.InitDB(config.GetDBPath()); err != nil {
		log.Fatal(err)
	}
	defer func() {
		if err := database.CloseDB(); err != nil {
			logger.Warning("close database err:", err)
		}
	}()

	server := web.NewServer()
	if err := server.Start(); err != nil {
		log.Println(err)
		return
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)
	for {
		sig := <-sigCh

		switch sig {
		case syscall.SIGHUP:
			if err := server.Stop(); err != nil {
				logger.Warning("stop server err:", err)
			}
			server = web.NewServer()
			if err := server.Start(); err != nil {
				log.Println(err)
				return
			}
		default:
			if err := server.Stop(); err != nil {
				logger.Warning("stop server err:", err)
			}
			return
		}
	}
}

func createUser(username, password, name string) {
	if err := database.InitDB(config.GetDBPath()); err != nil {
		fmt.Println(err)
		return
	}

	userService := service.UserService{}
	user, err := userService.CreateUser(username, password, name)
	if err != nil {
		fmt.Println("create user failed:", err)
		return
	}
	fmt.Printf("created user %q (id %d)\n", user.Username, user.Id)
}

func main() {
	_ = godotenv.Load()

	if err := config.LoadFile("taskwire.toml"); err != nil {
		log.Fatal("load config file:", err)
	}

	rootCmd := &cobra.Command{
		Use:   "taskwire",
		Short: "Realtime shared task board",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the taskwire web server",
		Run: func(cmd *cobra.Command, args []string) {
			runWebServer()
		},
	}

	var username, password, name string
	userCmd := &cobra.Command{
		Use:   "adduser",
		Short: "Create an account from the command line",
		Run: func(cmd *cobra.Command, args []string) {
			createUser(username, password, name)
		},
	}
	userCmd.Flags().StringVarP(&username, "username", "u", "", "unique username")
	userCmd.Flags().StringVarP(&password, "password", "p", "", "password")
	userCmd.Flags().StringVarP(&name, "name", "n", "", "display name")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(config.GetVersion())
		},
	}

	rootCmd.AddCommand(runCmd, userCmd, versionCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
