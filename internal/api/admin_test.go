package api

import (
	"net/http"
	"net/url"
	"time"
)

func (s *ServerTestSuite) TestSchedulerPanelAdminsOnly() {
	alice := s.registered("alice", "a@x.com")
	w := alice.get("/admin/jobs")
	s.Equal(http.StatusFound, w.Code)
	s.Equal("/", w.Header().Get("Location"))
	s.Contains(alice.get("/").Body.String(), "This page is for admins only")

	s.Equal("/", alice.post("/admin/jobs/cache_purge/run", nil).Header().Get("Location"))

	w = s.newBrowser().get("/admin/jobs")
	s.Equal("/login", w.Header().Get("Location"))
}

func (s *ServerTestSuite) TestSchedulerPanel() {
	admin := s.registered("admin", "admin@x.com")

	w := admin.get("/admin/jobs")
	s.Equal(http.StatusOK, w.Code)
	body := w.Body.String()
	s.Contains(body, "Recipe Cache Purge")
	s.Contains(body, `action="/admin/jobs/cache_purge/run"`)
	s.Contains(body, "never")
}

func (s *ServerTestSuite) TestRunSchedulerJob() {
	admin := s.registered("admin", "admin@x.com")
	sched := s.engine.GetScheduler()
	sched.Start()

	s.Equal(http.StatusNotFound, admin.post("/admin/jobs/missing/run", nil).Code)

	// a form without the session token is refused
	w := admin.post("/admin/jobs/cache_purge/run", url.Values{"token": {"forged"}})
	s.Equal("/admin/jobs", w.Header().Get("Location"))
	s.Contains(admin.get("/admin/jobs").Body.String(), "please try again")
	job, ok := sched.GetJob("cache_purge")
	s.Require().True(ok)
	s.Zero(job.RunCount)

	m := tokenField.FindStringSubmatch(admin.get("/admin/jobs").Body.String())
	s.Require().NotNil(m)
	w = admin.post("/admin/jobs/cache_purge/run", url.Values{"token": {m[1]}})
	s.Equal("/admin/jobs", w.Header().Get("Location"))
	s.Contains(admin.get("/admin/jobs").Body.String(), "Recipe Cache Purge started")

	s.Eventually(func() bool {
		job, _ := sched.GetJob("cache_purge")
		return job.RunCount == 1 && job.Status == "completed"
	}, 5*time.Second, 20*time.Millisecond)
}
