package bootstrap

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fulldump/box"

	"github.com/docbridge/docbridge/api"
	"github.com/docbridge/docbridge/configuration"
	"github.com/docbridge/docbridge/database"
	"github.com/docbridge/docbridge/service"
)

var VERSION = "dev"

func Bootstrap(c *configuration.Configuration) (start, stop func()) {

	db := database.NewDatabase(&database.Config{
		Dir:       c.Dir,
		HandleTTL: time.Duration(c.HandleTTLSeconds) * time.Second,
	})

	s := service.NewService(db)
	if c.MaxLimit > 0 {
		s.MaxLimit = c.MaxLimit
	}
	if c.MaxScan > 0 {
		s.MaxScan = c.MaxScan
	}
	if c.MaxInsertBatch > 0 {
		s.MaxInsertBatch = c.MaxInsertBatch
	}

	b := api.Build(s)
	if c.EnableCompression {
		b.WithInterceptors(api.Compression)
	}
	b.WithInterceptors(
		api.RequestTimer,
		api.AccessLog(log.New(os.Stdout, "ACCESS: ", log.Lshortfile)),
		api.CORS(splitOrigins(c.AllowedOrigins)),
		api.PrettyErrorInterceptor,
		api.InterceptorUnavailable(db),
		box.RecoverFromPanic,
	)

	server := &http.Server{
		Addr:    c.HttpAddr,
		Handler: box.Box2Http(b),
	}

	ln, err := net.Listen("tcp", c.HttpAddr)
	if err != nil {
		log.Println("ERROR:", err.Error())
		os.Exit(-1)
	}
	log.Println("listening on", c.HttpAddr)

	stop = func() {
		db.Stop()
		server.Shutdown(context.Background())
	}

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		for {
			sig := <-signalChan
			fmt.Println("Signal received", sig.String())
			stop()
		}
	}()

	start = func() {

		wg := &sync.WaitGroup{}

		wg.Add(1)
		go func() {
			defer wg.Done()
			err := db.Start()
			if err != nil {
				fmt.Println(err.Error())
			}
		}()

		wg.Add(1)
		go func() {
			defer wg.Done()
			err := server.Serve(ln)
			if err != nil {
				fmt.Println(err.Error())
			}
		}()

		wg.Wait()
	}

	return
}

func splitOrigins(origins string) []string {
	result := []string{}
	for _, origin := range strings.Split(origins, ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			result = append(result, origin)
		}
	}
	return result
}
