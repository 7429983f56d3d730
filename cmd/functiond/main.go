package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli"
	"go.uber.org/zap"

	"github.com/neritic/functiond/config"
	"github.com/neritic/functiond/dao"
	"github.com/neritic/functiond/executor"
	"github.com/neritic/functiond/server"
	"github.com/neritic/functiond/services/kafka"
)

var logger = config.RootLogger

// Services that require network
const (
	DatabaseService = "db"
	DockerService   = "docker"
	KafkaService    = "kafka"
)

func main() {

	cliParser := cli.NewApp()
	cliParser.Name = "functiond"
	cliParser.Usage = "function execution server binary"
	cliParser.Version = "1.0"

	cliParser.Commands = []cli.Command{
		{
			Name:  "env",
			Usage: "Print all environment variables",
			Action: func(ctx *cli.Context) error {
				config.PrintEnvironment()
				return nil
			},
		},
		{
			Name:   "testService",
			Usage:  "Run network diagnostic test against a service dependency. Values: db, docker, kafka",
			Action: runServiceTest,
		},
	}

	cliParser.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "conf",
			Usage: "Path to yaml configuration file.",
			Value: "",
		},
		cli.StringSliceFlag{
			Name:  "addOrigin",
			Usage: "An additional allowed CORS origin. Can be specified multiple times.",
		},
	}

	cliParser.Action = func(c *cli.Context) error {
		opts := config.NewCommandLineOpts(c)
		conf := config.NewAppConfiguration(opts)
		if err := server.Start(conf); err != nil {
			logger.Error("server stopped", zap.Error(err))
			os.Exit(1)
		}
		return nil
	}

	cliParser.Run(os.Args)
}

func runServiceTest(c *cli.Context) error {
	opts := config.NewCommandLineOpts(c)
	conf := config.NewAppConfiguration(opts)

	service := c.Args().First()
	switch service {
	case DatabaseService:
		_, identifier, err := dao.NewDataAccessLayer(conf.DatabaseConnection, dao.WithLogger(zap.NewNop()))
		if err != nil {
			fmt.Println("Cannot open metadata database:", err)
			os.Exit(1)
		}
		fmt.Println("Database reachable, identifier", identifier)
	case DockerService:
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		client := executor.NewDockerCmdRunner(executor.NewExecCommandRunner(zap.NewNop()), conf.ExecutorSettings.DockerBinary)
		if err := client.Info(ctx); err != nil {
			fmt.Println("Docker is not running or accessible:", err)
			os.Exit(1)
		}
		fmt.Println("Docker is running and accessible.")
		for _, runtime := range conf.ExecutorSettings.Runtimes {
			if client.RuntimeAvailable(ctx, runtime) {
				fmt.Println("OCI runtime available:", runtime)
			} else {
				fmt.Println("OCI runtime NOT available:", runtime)
			}
		}
	case KafkaService:
		if len(conf.EventQueue.KafkaAddrs) == 0 {
			fmt.Println("No kafka brokers configured, events will be discarded.")
			return nil
		}
		if _, err := kafka.NewAsyncProducer(conf.EventQueue.KafkaAddrs, kafka.WithLogger(zap.NewNop())); err != nil {
			fmt.Println("Cannot connect to kafka:", err)
			os.Exit(1)
		}
		fmt.Println("Kafka reachable at", conf.EventQueue.KafkaAddrs)
	default:
		fmt.Println("Unknown service. Values: db, docker, kafka")
		os.Exit(1)
	}
	return nil
}
