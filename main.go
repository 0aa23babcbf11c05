package main

import (
	"encoding/json"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

var addr = flag.String("addr", ":1212", "http listen address")
var globalRelease = flag.Bool("globalrelease", false, "any pointer-up releases all pressed keys")
var debug = flag.Bool("debug", false, "enable debug logging")

func main() {
	flag.Parse()

	logger := newLogger(*debug)
	defer logger.Sync()
	log := logger.Sugar()

	keys := buildKeyboard()

	pointer := make(chan PointerEvent, 32)
	hub := newHub(keys, pointer, log)
	piano := newPiano(hub, pointer, *globalRelease, log)
	go piano.Run()

	r := mux.NewRouter()
	r.Handle("/ws", hub)

	// layout dump, same data the frontend gets as its first ws message
	r.HandleFunc("/layout.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(keys)
	})

	// cleanup on ctrl+c / service stop
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		piano.Shutdown()
		logger.Sync()
		os.Exit(0)
	}()

	log.Infow("starting", "addr", *addr)

	h := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "OPTIONS"}),
	)(handlers.CompressHandler(r))

	if err := http.ListenAndServe(*addr, h); err != nil {
		log.Fatalw("server failed", "err", err)
	}
}

func newLogger(debug bool) *zap.Logger {
	if debug {
		logger, _ := zap.NewDevelopment()
		return logger
	}
	logger, _ := zap.NewProduction()
	return logger
}
