package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

type client struct {
	BaseURL   string
	OutFormat string // "json" | "text"
	HTTP      *http.Client
}

func (c *client) do(method, path string, body []byte) (int, []byte, error) {
	u := strings.TrimRight(c.BaseURL, "/") + path
	req, err := http.NewRequest(method, u, bytes.NewReader(body))
	if err != nil {
		return 0, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, b, nil
}

func (c *client) print(status int, body []byte) {
	if c.OutFormat == "json" {
		var v any
		if json.Unmarshal(body, &v) == nil {
			p, _ := json.MarshalIndent(v, "", "  ")
			fmt.Println(string(p))
			return
		}
	}
	if len(body) > 0 {
		fmt.Println(string(body))
	} else {
		fmt.Printf("status=%d\n", status)
	}
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func main() {
	var (
		baseURL = envOr("LEGACYBRIDGE_URL", "http://localhost:8080")
		out     = envOr("LEGACYBRIDGE_OUT", "text")
	)

	root := &cobra.Command{
		Use:   "legacybridgectl",
		Short: "CLI para operar el bridge de migración legacy",
	}
	root.PersistentFlags().StringVar(&baseURL, "url", baseURL, "URL base del bridge (env LEGACYBRIDGE_URL)")
	root.PersistentFlags().StringVar(&out, "out", out, "Formato de salida: json|text")

	cl := &client{BaseURL: baseURL, OutFormat: out, HTTP: &http.Client{Timeout: 30 * time.Second}}

	pingCmd := &cobra.Command{
		Use:   "ping",
		Short: "Chequea /readyz del bridge",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, body, err := cl.do("GET", "/readyz", nil)
			if err != nil {
				return err
			}
			if status/100 != 2 {
				return fmt.Errorf("ping fallo: status=%d body=%s", status, string(body))
			}
			if cl.OutFormat == "text" {
				fmt.Println("ok")
				return nil
			}
			cl.print(status, body)
			return nil
		},
	}

	var lookupByEmail bool
	lookupCmd := &cobra.Command{
		Use:   "lookup <username|email>",
		Short: "Busca un usuario (dispara la importación si no existe localmente)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/v1/users/" + url.PathEscape(args[0])
			if lookupByEmail {
				path += "?by=email"
			}
			status, body, err := cl.do("GET", path, nil)
			if err != nil {
				return err
			}
			cl.print(status, body)
			if status/100 != 2 {
				return fmt.Errorf("lookup fallo: status=%d", status)
			}
			return nil
		},
	}
	lookupCmd.Flags().BoolVar(&lookupByEmail, "email", false, "buscar por email en vez de username")

	var loginPassword string
	loginCmd := &cobra.Command{
		Use:   "login <username>",
		Short: "Login contra el bridge (valida y migra la credencial si aplica)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if loginPassword == "" {
				return fmt.Errorf("falta la password (flag --password o env LEGACYBRIDGE_PASSWORD)")
			}
			payload, err := json.Marshal(map[string]string{
				"username": args[0],
				"password": loginPassword,
			})
			if err != nil {
				return err
			}
			status, body, err := cl.do("POST", "/v1/auth/login", payload)
			if err != nil {
				return err
			}
			cl.print(status, body)
			if status/100 != 2 {
				return fmt.Errorf("login fallo: status=%d", status)
			}
			return nil
		},
	}
	loginCmd.Flags().StringVar(&loginPassword, "password", envOr("LEGACYBRIDGE_PASSWORD", ""), "password del usuario (env LEGACYBRIDGE_PASSWORD)")

	root.AddCommand(pingCmd, lookupCmd, loginCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
