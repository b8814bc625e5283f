package testkit

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// Client fires requests at a handler through httptest and carries cookies
// from one response to the next request, like a browser.
type Client struct {
	t       testing.TB
	handler http.Handler
	cookies map[string]*http.Cookie
	// JSON sends Accept: application/json on every request.
	JSON bool
}

// NewClient returns a client without cookies.
func NewClient(t testing.TB, h http.Handler) *Client {
	return &Client{t: t, handler: h, cookies: map[string]*http.Cookie{}}
}

// Do serves req and records the Set-Cookie headers of the response.
func (c *Client) Do(req *http.Request) *httptest.ResponseRecorder {
	c.t.Helper()
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	if c.JSON {
		req.Header.Set("Accept", "application/json")
	}
	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)

	for _, ck := range rec.Result().Cookies() {
		if ck.MaxAge < 0 || ck.Value == "" {
			delete(c.cookies, ck.Name)
			continue
		}
		c.cookies[ck.Name] = ck
	}
	return rec
}

// Cookie returns the stored cookie called name, or nil.
func (c *Client) Cookie(name string) *http.Cookie { return c.cookies[name] }

// Get requests path.
func (c *Client) Get(path string) *httptest.ResponseRecorder {
	c.t.Helper()
	return c.Do(httptest.NewRequest(http.MethodGet, path, nil))
}

// PostForm submits form urlencoded.
func (c *Client) PostForm(path string, form url.Values) *httptest.ResponseRecorder {
	c.t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.Do(req)
}

// PostMultipart submits m.
func (c *Client) PostMultipart(path string, m *Multipart) *httptest.ResponseRecorder {
	c.t.Helper()
	body, contentType := m.Build(c.t)
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", contentType)
	return c.Do(req)
}

// Login posts the login form and fails the test unless it redirects.
func (c *Client) Login(username, password string) *httptest.ResponseRecorder {
	c.t.Helper()
	rec := c.PostForm("/login", url.Values{"username": {username}, "password": {password}})
	require.Equal(c.t, http.StatusSeeOther, rec.Code, "login as %s: %s", username, rec.Body.String())
	return rec
}

// Multipart builds a multipart/form-data body.
type Multipart struct {
	fields [][2]string
	files  []multipartFile
}

type multipartFile struct {
	field, filename string
	content         []byte
}

// NewMultipart returns an empty body.
func NewMultipart() *Multipart { return &Multipart{} }

// Field adds a text field. Repeat the name for multi-valued fields.
func (m *Multipart) Field(name, value string) *Multipart {
	m.fields = append(m.fields, [2]string{name, value})
	return m
}

// Fields adds every value of form.
func (m *Multipart) Fields(form url.Values) *Multipart {
	for name, values := range form {
		for _, v := range values {
			m.Field(name, v)
		}
	}
	return m
}

// File adds a file part.
func (m *Multipart) File(field, filename string, content []byte) *Multipart {
	m.files = append(m.files, multipartFile{field: field, filename: filename, content: content})
	return m
}

// Build encodes the body and returns it with its Content-Type.
func (m *Multipart) Build(t testing.TB) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, f := range m.fields {
		require.NoError(t, w.WriteField(f[0], f[1]))
	}
	for _, f := range m.files {
		part, err := w.CreateFormFile(f.field, f.filename)
		require.NoError(t, err)
		_, err = part.Write(f.content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

// Envelope is the JSON body written by pkg/response.
type Envelope struct {
	Status  int               `json:"status"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Errors  map[string]string `json:"errors"`
}

// DecodeEnvelope parses rec's body as a response envelope.
func DecodeEnvelope(t testing.TB, rec *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), "body: %s", rec.Body.String())
	return env
}
