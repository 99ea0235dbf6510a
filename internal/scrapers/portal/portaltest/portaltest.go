// Package portaltest serves a fake attendance portal over httptest.
package portaltest

import (
	"fmt"
	"html"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/mazen160/go-random"
)

const sessionCookie = "PHPSESSID"

// DefaultHome is a home page carrying a details panel and every context field.
const DefaultHome = `<html><body>
<div class="panel panel-default">
	<div class="panel-heading"><h4>My Details</h4></div>
	<div class="panel-body"><ul>
		<li><b>Name:</b> Jane Doe</li>
		<li><b>Roll No:</b> 42</li>
		<li><strong>Branch</strong> Computer Science</li>
	</ul></div>
</div>
<form>
	<input type="hidden" name="student_id" value="S-1001">
	<input type="hidden" name="class_id" value="C-7">
	<input type="hidden" name="classname" value="SE COMP A">
	<input type="hidden" name="acad_year" value="2023-24">
</form>
</body></html>`

// NoTablePage is an attendance page without an attendance table.
const NoTablePage = `<html><body><p>No attendance marked yet.</p></body></html>`

type Subject struct {
	Code string
	Name string
	// Page is served as the subject's attendance page.
	Page string
	// Drop closes the connection instead of answering.
	Drop bool
}

type Portal struct {
	Username string
	Password string
	// Home replaces DefaultHome when not empty.
	Home string
	// OmitToken leaves the token out of the login page.
	OmitToken bool
	// LoginRedirect, if set, is where every login attempt is redirected to.
	LoginRedirect string
	Subjects      []Subject

	Server *httptest.Server

	token   string
	session string

	mu   sync.Mutex
	hits map[string]int
}

func New(t testing.TB, username, password string, subjects ...Subject) *Portal {
	token, err := random.String(16)
	if err != nil {
		t.Fatal(err)
	}
	session, err := random.String(24)
	if err != nil {
		t.Fatal(err)
	}

	p := &Portal{
		Username: username,
		Password: password,
		Subjects: subjects,
		token:    token,
		session:  session,
		hits:     map[string]int{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", p.loginPage)
	mux.HandleFunc("POST /{$}", p.login)
	mux.HandleFunc("GET /home.php", p.authed(p.home))
	mux.HandleFunc("POST /studentsubject.php", p.authed(p.subjects))
	mux.HandleFunc("POST /studentsubatt.php", p.authed(p.attendance))

	p.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p.mu.Lock()
		p.hits[r.URL.Path]++
		p.mu.Unlock()
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(p.Server.Close)

	return p
}

func (p *Portal) Url() string {
	return p.Server.URL
}

// Hits returns how many requests were made to `path`.
func (p *Portal) Hits(path string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hits[path]
}

func (p *Portal) loginPage(w http.ResponseWriter, _ *http.Request) {
	token := ""
	if !p.OmitToken {
		token = fmt.Sprintf(`<input type="hidden" name="token" value="%s">`, p.token)
	}
	fmt.Fprintf(w, `<html><body><form method="post" action="/">
	%s
	<input type="text" name="username">
	<input type="password" name="password">
	<input type="submit" value="Login">
</form></body></html>`, token)
}

func (p *Portal) login(w http.ResponseWriter, r *http.Request) {
	if p.LoginRedirect != "" {
		http.Redirect(w, r, p.LoginRedirect, http.StatusFound)
		return
	}
	if r.FormValue("token") != p.token ||
		r.FormValue("username") != p.Username ||
		r.FormValue("password") != p.Password {
		p.loginPage(w, r)
		return
	}
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: p.session, Path: "/"})
	http.Redirect(w, r, "/home.php", http.StatusFound)
}

func (p *Portal) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookie)
		if err != nil || cookie.Value != p.session {
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}
		next(w, r)
	}
}

func (p *Portal) home(w http.ResponseWriter, _ *http.Request) {
	if p.Home != "" {
		fmt.Fprint(w, p.Home)
		return
	}
	fmt.Fprint(w, DefaultHome)
}

func (p *Portal) subjects(w http.ResponseWriter, r *http.Request) {
	for _, field := range []string{"student_id", "class_id", "classname", "acad_year"} {
		if r.FormValue(field) == "" {
			http.Error(w, "missing "+field, http.StatusBadRequest)
			return
		}
	}

	var out strings.Builder
	out.WriteString("<html><body>")
	for i, s := range p.Subjects {
		fmt.Fprintf(
			&out,
			`<form id="subject-%d" method="post" action="studentsubatt.php">
	<input type="hidden" name="sub_code" value="%s">
	<input type="hidden" name="sub_fullname" value="%s">
	<input type="submit" value="View">
</form>`,
			i, html.EscapeString(s.Code), html.EscapeString(s.Name),
		)
	}
	// forms without an id are not subjects
	out.WriteString(`<form method="post" action="logout.php"><input type="hidden" name="logout" value="1"></form>`)
	out.WriteString("</body></html>")
	fmt.Fprint(w, out.String())
}

func (p *Portal) attendance(w http.ResponseWriter, r *http.Request) {
	code := r.FormValue("sub_code")
	for _, s := range p.Subjects {
		if s.Code != code {
			continue
		}
		if s.Drop {
			hijacker, ok := w.(http.Hijacker)
			if !ok {
				http.Error(w, "cannot drop", http.StatusInternalServerError)
				return
			}
			conn, _, err := hijacker.Hijack()
			if err == nil {
				conn.Close()
			}
			return
		}
		fmt.Fprint(w, s.Page)
		return
	}
	http.Error(w, "unknown subject", http.StatusNotFound)
}

// AttendancePage renders an attendance table with one row per entry of `rows`.
func AttendancePage(rows ...[]string) string {
	var out strings.Builder
	out.WriteString(`<html><body><table class="table table-bordered table-striped">
<thead><tr><th>Date</th><th>Lecture</th><th>Status</th></tr></thead>
<tbody>`)
	for _, row := range rows {
		out.WriteString("<tr>")
		for _, cell := range row {
			fmt.Fprintf(&out, "<td>%s</td>", html.EscapeString(cell))
		}
		out.WriteString("</tr>")
	}
	out.WriteString("</tbody></table></body></html>")
	return out.String()
}

// Rows builds `present` present and `absent` absent rows on consecutive days
// of January 2024, starting on the 1st.
func Rows(present, absent int) [][]string {
	var rows [][]string
	for i := range present + absent {
		status := "Present"
		if i >= present {
			status = "Absent"
		}
		rows = append(rows, []string{fmt.Sprintf("%02d-01-2024", i+1), "Lecture", status})
	}
	return rows
}
