package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestQuoteCommandMinimum(t *testing.T) {
	out, err := execute(t, "quote", "-W", "800", "-H", "900", "-m", "alu", "-p", "mini", "-c", "weiss")
	require.NoError(t, err)
	require.Contains(t, out, "area      0.720 m²")
	require.Contains(t, out, "total     33,60 € (x1)")
	require.Contains(t, out, "Mindestpreis")
}

func TestQuoteCommandJSON(t *testing.T) {
	out, err := execute(t, "quote", "-W", "1500", "-H", "1000", "-m", "pvc", "-p", "maxi", "-c", "oregon", "--json")
	require.NoError(t, err)

	var resp struct {
		TotalPrice     int64  `json:"total_price"`
		Key            string `json:"key"`
		MinimumApplied bool   `json:"minimum_applied"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Equal(t, int64(3837), resp.TotalPrice)
	require.Equal(t, "pvc_maxi_special", resp.Key)
	require.False(t, resp.MinimumApplied)
}

func TestQuoteCommandUsesPriceFile(t *testing.T) {
	prices := writeFile(t, "prices.yaml", "min_area_m2: 2\nprices:\n  alu_mini_standard: 40\n")
	out, err := execute(t, "--prices", prices, "quote", "-W", "1000", "-H", "1000")
	require.NoError(t, err)
	require.Contains(t, out, "total     80,00 € (x1)")
}

func TestQuoteCommandRejectsBadMaterial(t *testing.T) {
	_, err := execute(t, "quote", "-W", "1000", "-H", "1000", "-m", "holz")
	require.ErrorContains(t, err, "Invalid material")
}

func TestScenariosCommand(t *testing.T) {
	file := writeFile(t, "scenarios.yaml", `
scenarios:
  - name: below minimum
    material: alu
    profile: mini
    color: weiss
    width_mm: 800
    height_mm: 900
  - name: wrong expectation
    material: alu
    profile: mini
    color: weiss
    width_mm: 1000
    height_mm: 2000
    expected:
      total_price: 10
`)
	out, err := execute(t, "scenarios", file)
	require.ErrorContains(t, err, "1 scenario(s) failed")
	require.Contains(t, out, "PASS  below minimum")
	require.Contains(t, out, "FAIL  wrong expectation")
	require.Contains(t, out, "1/2 scenarios passed")
}

func TestCartAddDryRun(t *testing.T) {
	out, err := execute(t, "cart", "add", "-W", "800", "-H", "900", "--dry-run")
	require.NoError(t, err)
	require.Contains(t, out, `"id": "ROLLER-ALU-MINI-STD"`)
	require.Contains(t, out, `"Total": "33,60 €"`)
}

func TestCartAddPostsToShop(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/cart/add.js", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[{"id":1}]}`))
	}))
	defer srv.Close()

	out, err := execute(t, "cart", "add", "--shop", srv.URL, "-W", "1200", "-H", "1200", "-c", "beige")
	require.NoError(t, err)
	require.Contains(t, out, `{"items":[{"id":1}]}`)
	require.Len(t, got["items"], 1)
}

func fakeShopAPI(t *testing.T) (*httptest.Server, *[]map[string]any) {
	t.Helper()
	var created []map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "hunter22" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"error":"Invalid email or password","code":"UNAUTHORIZED"}`)
			return
		}
		_, _ = io.WriteString(w, `{"user":{"id":"u-1","email":"`+body["email"]+`"},"accessToken":"a","refreshToken":"r"}`)
	})
	mux.HandleFunc("POST /api/addresses", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer a" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		created = append(created, body)
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":"addr-1","city":"Köln"}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &created
}

func TestAccountAddAddress(t *testing.T) {
	srv, created := fakeShopAPI(t)
	t.Setenv(passwordEnv, "hunter22")

	out, err := execute(t, "account", "add-address", "--api", srv.URL, "--email", "buyer@example.com",
		"--street", "Domplatz 1", "--postal-code", "50667", "--city", "Köln")
	require.NoError(t, err)
	require.Contains(t, out, `"id": "addr-1"`)
	require.Len(t, *created, 1)
	require.Equal(t, "Köln", (*created)[0]["city"])
	require.Equal(t, "shipping", (*created)[0]["address_type"])
}

func TestAccountLoginErrors(t *testing.T) {
	srv, _ := fakeShopAPI(t)
	t.Setenv(passwordEnv, "")

	_, err := execute(t, "account", "me", "--api", srv.URL, "--email", "buyer@example.com")
	require.ErrorContains(t, err, "password required")

	_, err = execute(t, "account", "me", "--api", srv.URL, "--email", "buyer@example.com", "--password", "wrong")
	require.ErrorContains(t, err, "Invalid email or password")
}
