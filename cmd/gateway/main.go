package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"

	"github.com/pratoapp/go-session-gateway/auth"
	sqlitesessionrepo "github.com/pratoapp/go-session-gateway/auth/sessions/sqliterepo"
	"github.com/pratoapp/go-session-gateway/internal/config"
	"github.com/pratoapp/go-session-gateway/internal/sqlitedb"
	sqlitekvrepo "github.com/pratoapp/go-session-gateway/kvsessions/sqliterepo"
	"github.com/pratoapp/go-session-gateway/server"
	sqliteuserrepo "github.com/pratoapp/go-session-gateway/users/sqliterepo"
)

func main() {
	for {
		if err := run(); err != nil {
			log.Fatalf("Error running server: %s\n", err)
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Printf("Server stopped\n")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v\n", err)
	}

	c := config.New()
	displayAppname(c.GetAppName())

	db, err := sqlitedb.Open(filepath.Join(c.GetDataFolder(), "gateway.db"))
	if err != nil {
		return fmt.Errorf("sqlitedb.Open: %w", err)
	}
	defer db.Close()

	repos := auth.Repos{
		Users:    sqliteuserrepo.New(db),
		Sessions: sqlitesessionrepo.New(db),
		KV:       sqlitekvrepo.New(db),
	}

	options := []auth.ServiceOption{auth.WithSessionExpiry(c.GetSessionExpiry())}
	if c.GetGoogleClientID() != "" {
		redirectURL := c.GetBaseURL() + server.RouteAuthCallback
		provider, err := auth.NewGoogleProvider(context.Background(),
			c.GetProviderIssuer(), c.GetGoogleClientID(), c.GetGoogleClientSecret(), redirectURL)
		if err != nil {
			return fmt.Errorf("auth.NewGoogleProvider: %w", err)
		}
		options = append(options, auth.WithProvider(provider))
	} else {
		log.Printf("GOOGLE_CLIENT_ID not set, social sign-in disabled\n")
	}

	authService, err := auth.NewService(repos, c.GetSessionSecret(), c.GetSessionCookieName(), options...)
	if err != nil {
		return fmt.Errorf("auth.NewService: %w", err)
	}

	srv, err := server.New(c, authService, repos.KV)
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}

	purgeDone := make(chan struct{})
	defer close(purgeDone)
	go purgeExpiredSessions(authService, purgeDone)

	httpServer := &http.Server{Addr: c.GetPort(), Handler: srv}
	go listenAndServe(httpServer)
	waitForStopSignal()
	returnError = shutdown(httpServer)
	return returnError
}

func listenAndServe(server *http.Server) error {
	log.Printf("Server listening on %s\n", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func purgeExpiredSessions(authService *auth.Service, done <-chan struct{}) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := authService.PurgeExpiredSessions(); err != nil {
				log.Printf("Purging expired sessions: %v\n", err)
			}
		case <-done:
			return
		}
	}
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
