// Package reader serves the read traffic of chronos service. Readers never mutate visitor state nor the capsule
// collection.
package reader

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"wuyrush.io/chronos/common/metrics"
	pe "wuyrush.io/chronos/errors"
	"wuyrush.io/chronos/i18n"
	md "wuyrush.io/chronos/models"
	st "wuyrush.io/chronos/stores"
	"wuyrush.io/chronos/stores/session"
	"wuyrush.io/chronos/summary"
	"wuyrush.io/chronos/timeline"
)

// Reader handles read traffic of chronos service
type Reader struct {
	Router    *gin.Engine
	Capsules  st.CapsuleStore
	Drafts    *st.DraftStore
	Sessions  *session.Store
	Summaries *summary.Orchestrator
	Gate      *summary.Gate
}

func (rd *Reader) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rd.Router.ServeHTTP(w, r)
}

func (rd *Reader) SetupRoutes() {
	rt := gin.New()
	rt.Use(gin.Recovery(), instrument())

	rt.GET("/healthz", rd.HandleHealthz)
	rt.GET("/metrics", gin.WrapH(promhttp.Handler()))
	rt.GET("/offers", rd.HandleListOffers)
	rt.GET("/capsules", rd.HandleListCapsules)
	rt.GET("/capsules/:id", rd.HandleGetCapsule)
	rt.GET("/timeline", rd.HandleGetTimeline)
	rt.GET("/timeline/years", rd.HandleGetYearOverview)
	rt.GET("/timeline/years/:year", rd.HandleGetMonthDetail)
	rt.GET("/summary/:year/:month", rd.HandleGetSummary)
	rt.GET("/purchase", rd.HandleGetPurchase)
	rd.Router = rt
}

func (rd *Reader) HandleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (rd *Reader) HandleListOffers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"offers": md.Catalog()})
}

func (rd *Reader) HandleListCapsules(c *gin.Context) {
	vs := rd.Sessions.Load(c.Request)
	f, err := filterOf(c, vs)
	if err != nil {
		abort(c, err)
		return
	}
	lang := vs.Language(c.Request)
	found := f.Apply(rd.Capsules.List())
	views := make([]md.CapsuleView, len(found))
	for i, cp := range found {
		views[i] = cp.View(lang)
	}
	c.JSON(http.StatusOK, gin.H{"capsules": views})
}

func (rd *Reader) HandleGetCapsule(c *gin.Context) {
	cp, err := rd.Capsules.Get(c.Param("id"))
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, cp.View(rd.Sessions.Load(c.Request).Language(c.Request)))
}

// HandleGetTimeline renders the timeline the way the visitor left it
func (rd *Reader) HandleGetTimeline(c *gin.Context) {
	vs := rd.Sessions.Load(c.Request)
	lang := vs.Language(c.Request)
	all := rd.Capsules.List()
	c.JSON(http.StatusOK, gin.H{
		"lang":     lang,
		"q":        vs.Query,
		"tiers":    vs.Tiers,
		"timeline": timeline.Render(vs.View, vs.Filter().Apply(all), lang),
		"stats":    timeline.StatsOf(all),
		"vision":   vs.Vision,
	})
}

func (rd *Reader) HandleGetYearOverview(c *gin.Context) {
	vs := rd.Sessions.Load(c.Request)
	f, err := filterOf(c, vs)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"nodes": timeline.YearNodes(f.Apply(rd.Capsules.List()))})
}

func (rd *Reader) HandleGetMonthDetail(c *gin.Context) {
	vs := rd.Sessions.Load(c.Request)
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil || year < md.MinYear || year > md.MaxYear {
		abort(c, pe.NewBadInput("year must be a number between 1940 and 2050"))
		return
	}
	f, perr := filterOf(c, vs)
	if perr != nil {
		abort(c, perr)
		return
	}
	nodes := timeline.MonthNodes(year, f.Apply(rd.Capsules.List()), vs.Language(c.Request))
	c.JSON(http.StatusOK, gin.H{"year": year, "nodes": nodes})
}

// HandleGetSummary summarizes a month without touching the visitor's vision
func (rd *Reader) HandleGetSummary(c *gin.Context) {
	vs := rd.Sessions.Load(c.Request)
	year, yerr := strconv.Atoi(c.Param("year"))
	month, merr := strconv.Atoi(c.Param("month"))
	if yerr != nil || merr != nil || month < 1 || month > 12 {
		abort(c, pe.NewBadInput("year must be a number and month a number between 1 and 12"))
		return
	}
	lang := vs.Language(c.Request)
	if v := c.Query("lang"); v != "" {
		l, ok := i18n.Parse(v)
		if !ok {
			abort(c, pe.NewBadInput("unsupported language "+v))
			return
		}
		lang = l
	}
	release, ok := rd.Gate.Enter(vs.VisitorID)
	if !ok {
		abort(c, pe.NewBusy("a summary is already being consulted"))
		return
	}
	defer release()
	text := rd.Summaries.RequestSummary(c.Request.Context(), year, month, lang, rd.Capsules.List())
	c.JSON(http.StatusOK, gin.H{"dateKey": timeline.DateKey(year, month), "text": text})
}

func (rd *Reader) HandleGetPurchase(c *gin.Context) {
	vs := rd.Sessions.Load(c.Request)
	if vs.DraftID == "" {
		abort(c, pe.NewNotFound("no purchase in progress"))
		return
	}
	d, err := rd.Drafts.Get(vs.DraftID)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// filterOf reads the filter from the query string, falling back to the visitor's live filter
func filterOf(c *gin.Context, s session.State) (timeline.Filter, *pe.Err) {
	q, hasQ := c.GetQuery("q")
	rawTiers, hasTiers := c.GetQueryArray("tier")
	if !hasQ && !hasTiers {
		return s.Filter(), nil
	}
	f := timeline.Filter{Query: q}
	for _, raw := range rawTiers {
		for _, v := range strings.Split(raw, ",") {
			if strings.TrimSpace(v) == "" {
				continue
			}
			t, err := md.ParseTier(v)
			if err != nil {
				return f, pe.NewBadInput(err.Error())
			}
			f.Tiers = append(f.Tiers, t)
		}
	}
	return f, nil
}

func abort(c *gin.Context, err *pe.Err) {
	clog := log.WithField("path", c.Request.URL.Path).WithError(err)
	if err.StatusCode() >= http.StatusInternalServerError {
		clog.WithField("trace", err.Trace()).Error("failed serving request")
	} else {
		clog.Info("rejected request")
	}
	c.AbortWithStatusJSON(err.StatusCode(), gin.H{"error": err.Error()})
}

func instrument() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		elapsed := time.Since(start)
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequestDuration.
			WithLabelValues("reader", route, strconv.Itoa(c.Writer.Status())).
			Observe(elapsed.Seconds())
		log.WithFields(log.Fields{
			"router":     "reader",
			"httpMethod": c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latencyMs":  elapsed.Milliseconds(),
		}).Info("request served")
	}
}
