package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/safdarjung/resume-interview/internal/logger"
	"github.com/safdarjung/resume-interview/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve interview sessions over HTTP",
	Run: func(_ *cobra.Command, _ []string) {
		runServe()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("listen", "l", "", "address to listen on (default is :8080)")

	viper.BindPFlag("server.listen", serveCmd.Flags().Lookup("listen"))
}

func runServe() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	if !viper.GetBool("debug") {
		gin.SetMode(gin.ReleaseMode)
	}

	assistant, err := newAssistant(ctx, config, logger)
	if err != nil {
		logger.Fatal("creating the assistant", zap.Error(err))
	}

	logger.Info("starting the interviewer api", zap.String("version", version), zap.Stringer("default_model", config.DefaultModel))

	if err := server.New(assistant, config.DefaultModel, logger).Run(ctx, config.Server.Listen); err != nil {
		logger.Fatal("serving", zap.Error(err))
	}
}
