// Package writer serves the write traffic of chronos service: visitor state transitions, the purchase wizard
// and the epitaph helper.
package writer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	hr "github.com/julienschmidt/httprouter"
	log "github.com/sirupsen/logrus"
	"wuyrush.io/chronos/common/logging"
	"wuyrush.io/chronos/common/metrics"
	mw "wuyrush.io/chronos/common/middleware"
	cst "wuyrush.io/chronos/constants"
	pe "wuyrush.io/chronos/errors"
	"wuyrush.io/chronos/i18n"
	md "wuyrush.io/chronos/models"
	st "wuyrush.io/chronos/stores"
	"wuyrush.io/chronos/stores/session"
	"wuyrush.io/chronos/summary"
	"wuyrush.io/chronos/timeline"
)

// Epitapher crafts epitaphs out of capsule messages
type Epitapher interface {
	Epitaph(ctx context.Context, message string) string
}

// Config tunes the limits of a Writer
type Config struct {
	TrapName           string
	ReqBodySizeMaxByte int64
	TitleSizeMaxByte   int64
	MessageSizeMaxByte int64
	WriteRatePerSec    float64
	WriteBurst         int
}

// Writer handles write traffic of chronos service
type Writer struct {
	R         *hr.Router
	Capsules  st.CapsuleStore
	Drafts    *st.DraftStore
	Sessions  *session.Store
	Summaries *summary.Orchestrator
	Gate      *summary.Gate
	Oracle    Epitapher
	Config    Config
}

func (wrt *Writer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	wrt.R.ServeHTTP(w, r)
}

func (wrt *Writer) SetupRoutes() {
	r := hr.New()
	// every write shares a single token bucket
	limit := mw.RateLimiter(wrt.Config.WriteBurst, wrt.Config.WriteRatePerSec)
	handle := func(method, route string, h hr.Handle) {
		r.Handle(method, route, mw.Chain(h, limit, mw.PanicRecoverer(), mw.Instrument("writer", route)))
	}
	handle(http.MethodPut, "/preferences", wrt.HandleUpdatePreferences())
	handle(http.MethodPost, "/timeline/years/:year", wrt.HandleActivateYear())
	handle(http.MethodPost, "/timeline/overview", wrt.HandleShowOverview())
	handle(http.MethodPost, "/timeline/months/:month", wrt.HandleActivateMonth())
	handle(http.MethodDelete, "/timeline/vision", wrt.HandleDismissVision())
	handle(http.MethodPost, "/purchase", wrt.HandleStartPurchase())
	handle(http.MethodPut, "/purchase/offer", wrt.HandleSelectOffer())
	handle(http.MethodPost, "/purchase/details", wrt.HandleCustomize())
	handle(http.MethodPost, "/purchase/confirm", wrt.HandleConfirmPurchase())
	handle(http.MethodDelete, "/purchase", wrt.HandleCancelPurchase())
	handle(http.MethodPost, "/epitaph", wrt.HandleEpitaph())
	wrt.R = r
}

func (wrt *Writer) HandleUpdatePreferences() hr.Handle {
	type prefs struct {
		Lang  *string   `json:"lang"`
		Query *string   `json:"q"`
		Tiers *[]string `json:"tiers"`
	}
	return func(w http.ResponseWriter, r *http.Request, _ hr.Params) {
		var p prefs
		if err := wrt.decode(w, r, &p); err != nil {
			respErr(w, r, err)
			return
		}
		vs := wrt.Sessions.Load(r)
		if p.Lang != nil {
			l, ok := i18n.Parse(*p.Lang)
			if !ok {
				respErr(w, r, pe.NewBadInput(fmt.Sprintf("unsupported language %q", *p.Lang)))
				return
			}
			vs.Lang = l
		}
		if p.Query != nil {
			vs.Query = *p.Query
		}
		if p.Tiers != nil {
			tiers := make([]md.Tier, 0, len(*p.Tiers))
			for _, raw := range *p.Tiers {
				t, err := md.ParseTier(raw)
				if err != nil {
					respErr(w, r, pe.NewBadInput(err.Error()))
					return
				}
				tiers = append(tiers, t)
			}
			vs.Tiers = tiers
		}
		wrt.saveAndRespond(w, r, vs, http.StatusOK, vs)
	}
}

func (wrt *Writer) HandleActivateYear() hr.Handle {
	return func(w http.ResponseWriter, r *http.Request, p hr.Params) {
		year, err := strconv.Atoi(p.ByName("year"))
		if err != nil {
			respErr(w, r, pe.NewBadInput("year must be a number").WithCause(err))
			return
		}
		wrt.transition(w, r, timeline.ActivateYear{Year: year})
	}
}

func (wrt *Writer) HandleShowOverview() hr.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ hr.Params) {
		wrt.transition(w, r, timeline.ShowOverview{})
	}
}

func (wrt *Writer) transition(w http.ResponseWriter, r *http.Request, a timeline.Action) {
	vs := wrt.Sessions.Load(r)
	next, err := timeline.Reduce(vs.View, a)
	if err != nil {
		respErr(w, r, pe.NewBadInput(err.Error()))
		return
	}
	vs.View = next
	lang := vs.Language(r)
	wrt.saveAndRespond(w, r, vs, http.StatusOK, timeline.Render(next, vs.Filter().Apply(wrt.Capsules.List()), lang))
}

// HandleActivateMonth consults the oracle about a month of the year in detail and keeps the answer as the
// visitor's vision
func (wrt *Writer) HandleActivateMonth() hr.Handle {
	return func(w http.ResponseWriter, r *http.Request, p hr.Params) {
		month, err := strconv.Atoi(p.ByName("month"))
		if err != nil || month < 1 || month > 12 {
			respErr(w, r, pe.NewBadInput("month must be a number between 1 and 12"))
			return
		}
		vs := wrt.Sessions.Load(r)
		if vs.View.Level != timeline.LevelMonthDetail {
			respErr(w, r, pe.NewBadInput("zoom into a year first"))
			return
		}
		release, ok := wrt.Gate.Enter(vs.VisitorID)
		if !ok {
			respErr(w, r, pe.NewBusy("a summary is already being consulted"))
			return
		}
		defer release()
		text := wrt.Summaries.RequestSummary(r.Context(), vs.View.Year, month, vs.Language(r), wrt.Capsules.List())
		vision := &session.Vision{DateKey: timeline.DateKey(vs.View.Year, month), Text: text}
		// the visitor may have moved on while the oracle was busy; only the vision changes
		if _, err := wrt.Sessions.Update(r, w, func(latest session.State) session.State {
			latest.Vision = vision
			return latest
		}); err != nil {
			log.WithError(err).WithField(cst.LogFieldVisitorID, vs.VisitorID).Warn("failed keeping vision")
		}
		respJSON(w, http.StatusOK, vision)
	}
}

func (wrt *Writer) HandleDismissVision() hr.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ hr.Params) {
		_, err := wrt.Sessions.Update(r, w, func(latest session.State) session.State {
			latest.Vision = nil
			return latest
		})
		if err != nil {
			respErr(w, r, pe.NewServiceFailure("failed saving visitor state").WithCause(err))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (wrt *Writer) HandleStartPurchase() hr.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ hr.Params) {
		vs := wrt.Sessions.Load(r)
		if vs.DraftID != "" {
			wrt.Drafts.Cancel(vs.DraftID)
		}
		d, err := wrt.Drafts.Start(time.Now())
		if err != nil {
			respErr(w, r, err)
			return
		}
		vs.DraftID = d.ID
		wrt.saveAndRespond(w, r, vs, http.StatusCreated, d)
	}
}

func (wrt *Writer) HandleSelectOffer() hr.Handle {
	type offerReq struct {
		Offer string `json:"offer"`
	}
	return func(w http.ResponseWriter, r *http.Request, _ hr.Params) {
		var req offerReq
		if err := wrt.decode(w, r, &req); err != nil {
			respErr(w, r, err)
			return
		}
		tier, terr := md.ParseTier(req.Offer)
		if terr != nil {
			respErr(w, r, pe.NewBadInput(terr.Error()))
			return
		}
		vs := wrt.Sessions.Load(r)
		d, err := wrt.Drafts.SelectOffer(vs.DraftID, tier)
		if err != nil {
			respErr(w, r, err)
			return
		}
		respJSON(w, http.StatusOK, d)
	}
}

// HandleCustomize reads the capsule content from a multipart form, part by part in a fixed order
func (wrt *Writer) HandleCustomize() hr.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ hr.Params) {
		clog := logging.WithFuncName()
		r.Body = http.MaxBytesReader(w, r.Body, wrt.Config.ReqBodySizeMaxByte)
		reader, err := r.MultipartReader()
		if err != nil {
			clog.WithError(err).Error("error getting multiform reader")
			respErr(w, r, pe.NewBadInput("error reading form data").WithCause(err))
			return
		}
		var details md.CapsuleDraft
		perr := processParts(reader,
			rejectHoneypot(wrt.Config.TrapName),
			parseDetails(&details, wrt.Config.TitleSizeMaxByte, wrt.Config.MessageSizeMaxByte),
		)
		if perr != nil {
			if perr.Code == pe.ErrCodeSpam {
				clog.WithField("remoteAddr", r.RemoteAddr).Warning("spam attempt detected. Rejecting request")
			}
			respErr(w, r, perr)
			return
		}
		vs := wrt.Sessions.Load(r)
		d, verr := wrt.Drafts.Customize(vs.DraftID, details)
		if verr != nil {
			respErr(w, r, verr)
			return
		}
		respJSON(w, http.StatusOK, d)
	}
}

func (wrt *Writer) HandleConfirmPurchase() hr.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ hr.Params) {
		vs := wrt.Sessions.Load(r)
		c, err := wrt.Drafts.Confirm(vs.DraftID, time.Now())
		if err != nil {
			respErr(w, r, err)
			return
		}
		if err := wrt.Capsules.Prepend(c); err != nil {
			respErr(w, r, err)
			return
		}
		metrics.CapsulesCreated.WithLabelValues(string(c.Tier)).Inc()
		log.WithFields(log.Fields{
			cst.LogFieldVisitorID: vs.VisitorID,
			cst.LogFieldCapsuleID: c.ID,
			"tier":                c.Tier,
		}).Info("capsule launched")
		vs.DraftID = ""
		wrt.saveAndRespond(w, r, vs, http.StatusCreated, c.View(vs.Language(r)))
	}
}

func (wrt *Writer) HandleCancelPurchase() hr.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ hr.Params) {
		vs := wrt.Sessions.Load(r)
		wrt.Drafts.Cancel(vs.DraftID)
		vs.DraftID = ""
		wrt.saveAndRespond(w, r, vs, http.StatusNoContent, nil)
	}
}

func (wrt *Writer) HandleEpitaph() hr.Handle {
	type epitaphReq struct {
		Message string `json:"message"`
	}
	return func(w http.ResponseWriter, r *http.Request, _ hr.Params) {
		var req epitaphReq
		if err := wrt.decode(w, r, &req); err != nil {
			respErr(w, r, err)
			return
		}
		if int64(len(req.Message)) > wrt.Config.MessageSizeMaxByte {
			respErr(w, r, pe.NewOversized().WithMsg("message too large"))
			return
		}
		respJSON(w, http.StatusOK, map[string]string{"epitaph": wrt.Oracle.Epitaph(r.Context(), req.Message)})
	}
}

func (wrt *Writer) decode(w http.ResponseWriter, r *http.Request, v interface{}) *pe.Err {
	body := http.MaxBytesReader(w, r.Body, wrt.Config.ReqBodySizeMaxByte)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		if err == io.EOF {
			return pe.NewBadInput("request body cannot be empty")
		}
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return pe.NewOversized().WithMsg(cst.ErrMsgRequestBodyTooLarge).WithCause(err)
		}
		return pe.NewBadInput("malformed request body").WithCause(err)
	}
	return nil
}

func (wrt *Writer) saveAndRespond(w http.ResponseWriter, r *http.Request, vs session.State, code int, body interface{}) {
	if err := wrt.Sessions.Save(r, w, vs); err != nil {
		respErr(w, r, pe.NewServiceFailure("failed saving visitor state").WithCause(err))
		return
	}
	if body == nil {
		w.WriteHeader(code)
		return
	}
	respJSON(w, code, body)
}

func respJSON(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.WithError(err).Error("error encoding response body")
	}
}

func respErr(w http.ResponseWriter, r *http.Request, err *pe.Err) {
	clog := log.WithFields(log.Fields{"path": r.URL.Path, "httpMethod": r.Method}).WithError(err)
	if err.StatusCode() >= http.StatusInternalServerError {
		clog.WithField("trace", err.Trace()).Error("failed serving request")
	} else {
		clog.Info("rejected request")
	}
	respJSON(w, err.StatusCode(), map[string]string{"error": err.Error()})
}
