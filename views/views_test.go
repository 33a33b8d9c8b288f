package views

import (
	"bytes"
	"testing"
	"time"

	"civicsync/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tmpl, err := Load()
	require.NoError(t, err)
	for _, name := range []string{
		"home.tmpl", "login.tmpl", "signup.tmpl", "issues.tmpl", "issue.tmpl", "report.tmpl",
		"report_success.tmpl", "dashboard_citizen.tmpl", "dashboard_authority.tmpl",
		"dashboard_admin.tmpl", "denied.tmpl", "not_found.tmpl", "error.tmpl",
	} {
		assert.NotNil(t, tmpl.Lookup(name), name)
	}

	var buf bytes.Buffer
	require.NoError(t, tmpl.ExecuteTemplate(&buf, "denied.tmpl", map[string]any{"Title": "Access denied"}))
	assert.Contains(t, buf.String(), "Access denied")
	assert.Contains(t, buf.String(), `href="/login"`)
}

func TestFuncs(t *testing.T) {
	funcs := Funcs()
	assert.Equal(t, "IN PROGRESS", funcs["statusLabel"].(func(models.IssueStatus) string)(models.StatusInProgress))
	assert.Equal(t, "67%", funcs["percent"].(func(float64) string)(2.0/3.0))
	assert.Equal(t, "Mar 5, 2024", funcs["date"].(func(time.Time) string)(time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)))

	deref := funcs["deref"].(func(*string) string)
	s := "x"
	assert.Equal(t, "x", deref(&s))
	assert.Equal(t, "", deref(nil))
}
