/*
Copyright © 2025 Seednode <seednode@seedno.de>
*/

package main

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
)

// The real display/host/player front-ends live outside this server;
// these pages are just enough to hand the room code, QR link, and
// websocket endpoint to whatever renders them.

func serveHomePage(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		securityHeaders(cfg, w)

		_, err := w.Write([]byte(newPage("feudbox", "Visit /room to create a game room.")))
		if err != nil {
			errs <- err

			return
		}
	}
}

func serveDisplayPage(cfg *Config, store *RoomStore, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		room, ok := store.get(ps.ByName("code"))
		if !ok {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			securityHeaders(cfg, w)
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(newPage("Not Found", "Room not found.")))
			return
		}

		var body strings.Builder
		fmt.Fprintf(&body, "Room %s — scan <a href=%q>the QR code</a> to join, or connect a display to %s/ws.",
			room.code,
			cfg.prefix+"/room/"+room.code+"/qr",
			cfg.prefix,
		)

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		securityHeaders(cfg, w)

		_, err := w.Write([]byte(newPage("Room "+room.code, body.String())))
		if err != nil {
			errs <- err

			return
		}
	}
}

func serveHostPage(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		securityHeaders(cfg, w)

		_, err := w.Write([]byte(newPage("feudbox host", "Connect a host controller to "+cfg.prefix+"/ws.")))
		if err != nil {
			errs <- err

			return
		}
	}
}

func servePlayerPage(cfg *Config, store *RoomStore, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		room, ok := store.get(ps.ByName("code"))
		if !ok {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			securityHeaders(cfg, w)
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(newPage("Not Found", "Room not found.")))
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		securityHeaders(cfg, w)

		_, err := w.Write([]byte(newPage("Join "+room.code, "Connect a player client to "+cfg.prefix+"/ws and join room "+room.code+".")))
		if err != nil {
			errs <- err

			return
		}
	}
}

func serveHealthCheck(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		securityHeaders(cfg, w)

		_, err := w.Write([]byte("Ok\n"))
		if err != nil {
			errs <- err

			return
		}
	}
}

func serveRobots(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		data := `User-agent: Amazonbot
Disallow: /

User-agent: Applebot-Extended
Disallow: /

User-agent: Bytespider
Disallow: /

User-agent: CCBot
Disallow: /

User-agent: ClaudeBot
Disallow: /

User-agent: Google-Extended
Disallow: /

User-agent: GPTBot
Disallow: /

User-agent: meta-externalagent
Disallow: /`

		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		securityHeaders(cfg, w)

		_, err := w.Write([]byte(data))
		if err != nil {
			errs <- err

			return
		}
	}
}
