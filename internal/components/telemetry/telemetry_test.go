package telemetry

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"attendance-backend/internal/components/telemetry/teltest"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

func TestScopedAPI(t *testing.T) {
	rec := &teltest.Recorder{}
	scoped := NewScopedAPI("portal", rec)

	scoped.ReportBroken("client.login", "detail")
	scoped.ReportWarning("client.attendance")
	scoped.ReportCount("subjects", 3)

	broken := rec.Reports("broken", "")
	require.Len(t, broken, 1)
	require.Equal(t, "portal: client.login", broken[0].Id)
	require.Equal(t, []any{"detail"}, broken[0].Params)

	require.Len(t, rec.Reports("warning", "portal: client.attendance"), 1)

	counts := rec.Reports("count", "portal: subjects")
	require.Len(t, counts, 1)
	require.Equal(t, []any{int64(3)}, counts[0].Params)
}

func TestInstrumentResty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>ok</html>"))
	}))
	defer server.Close()

	dir := filepath.Join(t.TempDir(), "dump")
	output, err := NewFilesystemOutput(dir)
	require.NoError(t, err)

	rec := &teltest.Recorder{}
	client := resty.New()
	InstrumentResty(client, rec, output)

	_, err = client.R().
		SetFormData(map[string]string{"a": "b"}).
		Post(server.URL + "/form")
	require.NoError(t, err)

	require.Len(t, rec.Reports("debug", report_resty_request), 1)
	require.Len(t, rec.Reports("debug", report_resty_response), 1)

	contents, err := os.ReadFile(filepath.Join(dir, "1"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(contents), "---- REQUEST ----"))
	require.Contains(t, string(contents), "a=b")
	require.Contains(t, string(contents), "<html>ok</html>")
}

func TestInstrumentRestyError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	rec := &teltest.Recorder{}
	client := resty.New()
	InstrumentResty(client, rec, nil)

	_, err := client.R().Get(url)
	require.Error(t, err)
	require.Len(t, rec.Reports("warning", report_resty_response), 1)
}
