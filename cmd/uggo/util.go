package main

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/nguyenkhacvan/uggo-new/lcu"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func pageFlags(page lcu.RunePage) string {
	var flags []string
	if page.Current {
		flags = append(flags, "current")
	}
	if !page.IsDeletable {
		flags = append(flags, "locked")
	}
	if !page.IsValid {
		flags = append(flags, "invalid")
	}
	if len(flags) == 0 {
		return "-"
	}
	return strings.Join(flags, ",")
}

// credentialsView is the JSON shape of `uggo lockfile --json`.
type credentialsView struct {
	Process  string `json:"process"`
	PID      uint32 `json:"pid"`
	Port     uint16 `json:"port"`
	Protocol string `json:"protocol"`
	Username string `json:"username"`
	Address  string `json:"address"`
	BaseURL  string `json:"baseUrl"`
	Password string `json:"password"`
}

func redactedCredentials(c lcu.Credentials) credentialsView {
	return credentialsView{
		Process:  c.Process,
		PID:      c.PID,
		Port:     c.Port,
		Protocol: c.Protocol,
		Username: c.Username,
		Address:  c.Address,
		BaseURL:  c.BaseURL(),
		Password: "<redacted>",
	}
}

func valueOr(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
