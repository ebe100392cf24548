package site

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSiteHandler(t *testing.T) {
	Convey("Given a router with the site registered", t, func() {
		r := chi.NewRouter()
		Register(r)

		serve := func(path string) *httptest.ResponseRecorder {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, http.NoBody))
			return w
		}

		Convey("Then / should serve the landing page", func() {
			w := serve("/")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Content-Type"), ShouldContainSubstring, "text/html")
			So(w.Body.String(), ShouldContainSubstring, "/api-docs")
		})

		Convey("Then assets should be served under /site", func() {
			w := serve("/site/style.css")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Content-Type"), ShouldContainSubstring, "text/css")
		})

		Convey("Then unknown assets should be missing", func() {
			So(serve("/site/nope.js").Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("Then other paths should not be claimed", func() {
			So(serve("/some-asset").Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestSiteHandlerWithNilRouter(t *testing.T) {
	Convey("Given a nil router", t, func() {
		Convey("Then registering should panic", func() {
			So(func() { Register(nil) }, ShouldPanic)
		})
	})
}
