package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/temirov/dumpo/internal/cli"
	"github.com/temirov/dumpo/internal/utils"
)

// main is the entry point for the dumpo command.
func main() {
	level := zap.NewAtomicLevelAt(zap.InfoLevel)
	loggerInstance, loggerInitializationError := utils.NewApplicationLogger(level)
	if loggerInitializationError != nil {
		panic(fmt.Errorf(utils.LoggerInitializationFailedMessageFormat, loggerInitializationError))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	applicationExecutionError := cli.Execute(ctx, cli.Dependencies{Logger: loggerInstance, Level: level})
	stop()
	if applicationExecutionError != nil {
		syncLogger(loggerInstance)
		loggerInstance.Fatal(utils.ApplicationExecutionFailedMessage, zap.Error(applicationExecutionError))
	}
	syncLogger(loggerInstance)
}

// syncLogger flushes the logger when stderr supports it; Sync on a pipe or
// console handle reports spurious errors.
func syncLogger(logger *zap.Logger) {
	if !term.IsTerminal(int(os.Stderr.Fd())) && !isRegularFile(os.Stderr) {
		return
	}
	if syncErr := logger.Sync(); syncErr != nil {
		if !strings.Contains(strings.ToLower(syncErr.Error()), "invalid argument") {
			log.Printf("logger sync failed: %v", syncErr)
		}
	}
}

func isRegularFile(file *os.File) bool {
	fileInfo, err := file.Stat()
	if err != nil {
		return false
	}
	return fileInfo.Mode().IsRegular()
}
