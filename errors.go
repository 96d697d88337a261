/*
Copyright © 2025 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
)

// Per-command failures surfaced to clients. Nothing here is fatal to
// the process; every failure is scoped to one room and one command.
// Error texts double as the user-facing messages in replies.
var (
	errRoomNotFound       = errors.New("Room not found")
	errInvalidCredentials = errors.New("Invalid host password")
	errHostConflict       = errors.New("Another host is already connected")
	errJudgeUnavailable   = errors.New("Failed to check answer. Please try again.")
	errValidation         = errors.New("Invalid command payload")
)

func logf(cfg *Config, format string, args ...any) {
	if !cfg.verbose {
		return
	}

	log.Printf("%s | "+format, append([]any{time.Now().Format(logDate)}, args...)...)
}

func newPage(title, body string) string {
	var htmlBody strings.Builder

	htmlBody.WriteString(`<!DOCTYPE html><html lang="en"><head>`)
	htmlBody.WriteString(`<style>`)
	htmlBody.WriteString(`html,body,a{display:block;height:100%;width:100%;text-decoration:none;color:inherit;cursor:auto;}</style>`)
	htmlBody.WriteString(fmt.Sprintf("<title>%s</title></head>", title))
	htmlBody.WriteString(fmt.Sprintf("<body><a href=\"/\">%s</a></body></html>", body))

	return htmlBody.String()
}
