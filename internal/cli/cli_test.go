package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/fatih/color"
)

// fakeAPI serves a minimal organization with one workspace and one run.
func fakeAPI(t *testing.T) *httptest.Server {
	t.Helper()
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v2/organizations/acme/workspaces/network", "/api/v2/workspaces/ws-1":
			w.Write([]byte(`{"data":{"id":"ws-1","type":"workspaces","attributes":{"name":"network"},
				"relationships":{"organization":{"data":{"id":"acme","type":"organizations"}},
				"current-run":{"data":{"id":"run-1","type":"runs"}},
				"current-state-version":{"data":{"id":"sv-1","type":"state-versions"},
					"links":{"related":"/api/v2/workspaces/ws-1/current-state-version"}}}}}`))
		case "/api/v2/workspaces/ws-1/current-state-version":
			w.Write([]byte(`{"data":{"id":"sv-1","type":"state-versions","attributes":{"serial":7}}}`))
		case "/api/v2/runs/run-1":
			w.Write([]byte(`{"data":{"id":"run-1","type":"runs","attributes":{"status":"planned"},
				"relationships":{"workspace":{"data":{"id":"ws-1","type":"workspaces"}},
				"plan":{"data":{"id":"plan-1","type":"plans"}}}}}`))
		case "/api/v2/plans/plan-1":
			w.Write([]byte(`{"data":{"id":"plan-1","type":"plans","attributes":{"status":"finished","resource-additions":2}}}`))
		case "/api/v2/runs/run-1/plan":
			w.Write([]byte(`{"data":{"id":"plan-1","type":"plans","attributes":{"status":"finished","log-read-url":"` + server.URL + `/log/plan-1"}}}`))
		case "/log/plan-1":
			if r.Header.Get("Authorization") != "" {
				t.Error("log request carried an Authorization header")
			}
			w.Write([]byte("Terraform v1.9.0\n{\"@message\":\"Plan: 2 to add\"}\n{\"type\":\"version\"}\n"))
		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"errors":[{"status":"404"}]}`))
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, name := range []string{"HCP_TOKEN", "TFC_TOKEN", "TFE_TOKEN", "TFE_HOSTNAME", "HCPCTL_ORG", "HCPCTL_LOG_LEVEL", "HCPCTL_POLL_INTERVAL"} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}

	cmd := NewRootCommand("1.0.0-test")
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := runCLI(t, "version")
	if err != nil {
		t.Fatalf("version error: %v", err)
	}
	if out != "hcpctl 1.0.0-test\n" {
		t.Errorf("output = %q", out)
	}
}

func TestGetWorkspace(t *testing.T) {
	server := fakeAPI(t)

	out, err := runCLI(t, "get", "ws", "network", "--org", "acme", "--host", server.URL, "--token", "t")
	if err != nil {
		t.Fatalf("get ws error: %v", err)
	}

	var doc map[string]any
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if doc["id"] != "ws-1" {
		t.Errorf("id = %v, want ws-1", doc["id"])
	}
}

func TestGetWorkspace_NotFound(t *testing.T) {
	server := fakeAPI(t)

	_, err := runCLI(t, "get", "ws", "missing", "-O", "acme", "--host", server.URL, "--token", "t")
	if err == nil {
		t.Fatal("get ws should fail for a missing workspace")
	}
	if want := "workspace 'missing' not found in organization 'acme'"; err.Error() != want {
		t.Errorf("error = %q, want %q", err, want)
	}
}

func TestGetWorkspace_Subresource(t *testing.T) {
	server := fakeAPI(t)

	out, err := runCLI(t, "get", "ws", "ws-1", "--subresource", "state", "--host", server.URL, "--token", "t")
	if err != nil {
		t.Fatalf("get ws error: %v", err)
	}

	var doc map[string]any
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if doc["id"] != "sv-1" {
		t.Errorf("id = %v, want sv-1", doc["id"])
	}
}

func TestGetWorkspace_SubresourceNotSet(t *testing.T) {
	server := fakeAPI(t)

	_, err := runCLI(t, "get", "ws", "ws-1", "--subresource", "config", "--host", server.URL, "--token", "t")
	if err == nil || !strings.Contains(err.Error(), "no 'current-configuration-version' relationship") {
		t.Errorf("error = %v, want missing relationship", err)
	}
}

func TestGetRun_Subresource(t *testing.T) {
	server := fakeAPI(t)

	out, err := runCLI(t, "get", "run", "run-1", "--subresource", "plan", "--host", server.URL, "--token", "t")
	if err != nil {
		t.Fatalf("get run error: %v", err)
	}

	var doc map[string]any
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if doc["id"] != "plan-1" {
		t.Errorf("id = %v, want plan-1", doc["id"])
	}
}

func TestGetRun_UnknownSubresource(t *testing.T) {
	server := fakeAPI(t)

	_, err := runCLI(t, "get", "run", "run-1", "--subresource", "state", "--host", server.URL, "--token", "t")
	if err == nil || err.Error() != `unknown subresource "state", want one of: apply, events, plan` {
		t.Errorf("error = %v", err)
	}
}

func TestLogs_Snapshot(t *testing.T) {
	server := fakeAPI(t)

	out, err := runCLI(t, "logs", "ws-1", "--host", server.URL, "--token", "t")
	if err != nil {
		t.Fatalf("logs error: %v", err)
	}
	if want := "Terraform v1.9.0\nPlan: 2 to add\n"; out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
}

func TestLogs_FollowFinishedRun(t *testing.T) {
	server := fakeAPI(t)

	out, err := runCLI(t, "logs", "run-1", "-f", "--raw", "--interval", "3", "--host", server.URL, "--token", "t")
	if err != nil {
		t.Fatalf("logs error: %v", err)
	}
	if !strings.Contains(out, `{"@message":"Plan: 2 to add"}`) {
		t.Errorf("raw output should keep JSON lines, got %q", out)
	}
}

func TestLogs_RequiresToken(t *testing.T) {
	_, err := runCLI(t, "logs", "run-1", "--host", "tfe.invalid")
	if err == nil || !strings.Contains(err.Error(), "no API token found for host 'tfe.invalid'") {
		t.Errorf("error = %v, want token not found", err)
	}
}

func TestLabelWriter(t *testing.T) {
	prev := color.NoColor
	t.Cleanup(func() { color.NoColor = prev })

	t.Run("plain", func(t *testing.T) {
		color.NoColor = true
		var buf bytes.Buffer
		lw := newLabelWriter(&buf)
		lw.emit("[run-1] hello")
		lw.emit("no label")
		if got := buf.String(); got != "[run-1] hello\nno label\n" {
			t.Errorf("output = %q", got)
		}
	})

	t.Run("colored", func(t *testing.T) {
		color.NoColor = false
		var buf bytes.Buffer
		lw := newLabelWriter(&buf)
		lw.emit("[run-1] a")
		lw.emit("[run-2] b")
		lw.emit("[run-1] c")

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		if len(lines) != 3 {
			t.Fatalf("got %d lines", len(lines))
		}
		if !strings.HasPrefix(lines[0], "\x1b[") {
			t.Errorf("label should be colored, got %q", lines[0])
		}
		prefix := func(s string) string { return s[:strings.Index(s, "m")+1] }
		if prefix(lines[0]) != prefix(lines[2]) {
			t.Error("the same run should keep its color")
		}
		if prefix(lines[0]) == prefix(lines[1]) {
			t.Error("different runs should get different colors")
		}
	})
}
