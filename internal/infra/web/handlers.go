package web

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"leadpilot/internal/domain"
	"leadpilot/internal/domain/model"
	"leadpilot/internal/infra/metrics"
	"leadpilot/internal/usecase"
)

// ===== Auth =====

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	WhatsApp string `json:"whatsapp"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenBody struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	UserID       string `json:"user_id"`
	Email        string `json:"email"`
	ExpiresIn    int    `json:"expires_in"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.ErrInvalidArgument)
		return
	}
	tokens, err := s.authUC.SignUp(r.Context(), req.Email, req.Password, req.FullName, req.WhatsApp)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, tokenBody{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		UserID:       tokens.UserID,
		Email:        tokens.Email,
		ExpiresIn:    tokens.ExpiresIn,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.ErrInvalidArgument)
		return
	}
	tokens, err := s.authUC.SignIn(r.Context(), req.Email, req.Password, remoteIP(r))
	if err != nil {
		if errors.Is(err, domain.ErrRateLimited) {
			writeError(w, err)
			return
		}
		var fe *usecase.FieldError
		if errors.As(err, &fe) {
			writeError(w, err)
			return
		}
		// Credential failures from the auth service stay generic.
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "invalid email or password"})
		return
	}
	writeJSON(w, http.StatusOK, tokenBody{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		UserID:       tokens.UserID,
		Email:        tokens.Email,
		ExpiresIn:    tokens.ExpiresIn,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if err := s.authUC.SignOut(r.Context(), token); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ===== Feed =====

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("page_size"))

	// The free search box is visual only; the term is accepted and ignored.
	feedPage, err := s.feedUC.List(r.Context(), sessionFrom(r.Context()), page, pageSize, q.Get("cnae"))
	if err != nil {
		writeError(w, err)
		return
	}
	metrics.IncFeedPage()
	writeJSON(w, http.StatusOK, feedPage)
}

type filterRequest struct {
	FilterID string `json:"filter_id"`
}

func (s *Server) handleFeedFilter(w http.ResponseWriter, r *http.Request) {
	var req filterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.FilterID == "" {
		writeError(w, domain.ErrInvalidArgument)
		return
	}
	label, _, known := s.decider.FilterInfo(req.FilterID)
	if !known {
		writeError(w, domain.ErrNotFound)
		return
	}
	s.gated(w, r, usecase.DecideInput{FeatureID: req.FilterID}, func() (interface{}, error) {
		return struct {
			FilterID string `json:"filter_id"`
			Label    string `json:"label"`
		}{req.FilterID, label}, nil
	})
}

// ===== Lead actions =====

func (s *Server) handleUnlock(w http.ResponseWriter, r *http.Request) {
	leadID := chi.URLParam(r, "id")
	sess := sessionFrom(r.Context())

	// Anonymous callers get the unlock-contact banner instead of a 401.
	if sess.IsZero() {
		s.respondGate(w, r, usecase.DecideInput{FeatureID: "unlock-contact"})
		return
	}

	lead, err := s.feedUC.Unlock(r.Context(), sess, leadID)
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientCredits) {
			metrics.IncLeadUnlock("no_credits")
			s.respondGate(w, r, usecase.DecideInput{FeatureID: "no-credits", Session: sess})
			return
		}
		metrics.IncLeadUnlock("error")
		writeError(w, err)
		return
	}
	metrics.IncLeadUnlock("ok")
	writeJSON(w, http.StatusOK, gateResponse{Allowed: true, Result: lead})
}

func (s *Server) handleFavorite(w http.ResponseWriter, r *http.Request) {
	leadID := chi.URLParam(r, "id")
	sess := sessionFrom(r.Context())
	if sess.IsZero() {
		s.respondGate(w, r, usecase.DecideInput{FeatureID: "bulk-favorite"})
		return
	}
	fav, err := s.feedUC.ToggleFavorite(r.Context(), sess, leadID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, gateResponse{Allowed: true, Result: struct {
		LeadID   string `json:"lead_id"`
		Favorite bool   `json:"favorite"`
	}{leadID, fav}})
}

type bulkRequest struct {
	LeadIDs []string `json:"lead_ids"`
}

func (s *Server) handleBulkFavorite(w http.ResponseWriter, r *http.Request) {
	var req bulkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.LeadIDs) == 0 {
		writeError(w, domain.ErrInvalidArgument)
		return
	}
	sess := sessionFrom(r.Context())
	s.gated(w, r, usecase.DecideInput{FeatureID: "bulk-favorite", Session: sess}, func() (interface{}, error) {
		n, err := s.feedUC.FavoriteMany(r.Context(), sess, req.LeadIDs)
		if err != nil {
			return nil, err
		}
		return struct {
			Favorited int `json:"favorited"`
		}{n}, nil
	})
}

func (s *Server) handleBulkMessage(w http.ResponseWriter, r *http.Request) {
	var req bulkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.LeadIDs) == 0 {
		writeError(w, domain.ErrInvalidArgument)
		return
	}
	// Bulk messaging is Pro-gated for everyone under the current entitlement
	// policy, so this always answers with the banner.
	s.respondGate(w, r, usecase.DecideInput{FeatureID: "bulk-message", Session: sessionFrom(r.Context())})
}

// ===== Catalog, CNAE, credits =====

func (s *Server) handleCNAESearch(w http.ResponseWriter, r *http.Request) {
	entries := s.cnaeUC.Search(r.Context(), r.URL.Query().Get("q"))
	writeJSON(w, http.StatusOK, struct {
		Entries []model.CNAE `json:"entries"`
	}{entries})
}

func (s *Server) handlePlans(w http.ResponseWriter, r *http.Request) {
	snap := s.clock.Snapshot()
	plans := s.catalog.Plans()

	type planBody struct {
		Tier     model.PlanTier `json:"tier"`
		Name     string         `json:"name"`
		Tagline  string         `json:"tagline"`
		Price    model.Price    `json:"price"`
		Benefits []string       `json:"benefits"`
		Popular  bool           `json:"popular"`
	}
	out := make([]planBody, 0, len(plans))
	for _, p := range plans {
		out = append(out, planBody{
			Tier:     p.Tier,
			Name:     p.Name,
			Tagline:  p.Tagline,
			Price:    s.catalog.PriceFor(p.Tier, snap.DiscountPercent),
			Benefits: p.Benefits,
			Popular:  p.Popular,
		})
	}
	writeJSON(w, http.StatusOK, struct {
		Plans    []planBody          `json:"plans"`
		Discount model.DiscountState `json:"discount"`
	}{out, snap})
}

func (s *Server) handleCredits(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	if sess.IsZero() {
		writeError(w, domain.ErrNoSession)
		return
	}
	n := s.creditUC.Remaining(r.Context(), sess.UserID)
	writeJSON(w, http.StatusOK, struct {
		Remaining int `json:"remaining"`
	}{n})
}

// ===== Upsell presenter =====

type upsellRequestBody struct {
	FeatureID string `json:"feature_id"`
	Term      string `json:"term,omitempty"`
}

func (s *Server) handleUpsellRequest(w http.ResponseWriter, r *http.Request) {
	var req upsellRequestBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.FeatureID == "" {
		writeError(w, domain.ErrInvalidArgument)
		return
	}
	s.respondGate(w, r, usecase.DecideInput{
		FeatureID: req.FeatureID,
		Term:      req.Term,
		Session:   sessionFrom(r.Context()),
	})
}

func (s *Server) handlePresenterGet(w http.ResponseWriter, r *http.Request) {
	s.presenterView(w, func(id string) (*usecase.PresenterView, error) {
		return s.presenter.Get(r.Context(), id)
	}, chi.URLParam(r, "id"))
}

func (s *Server) handlePresenterUpgrade(w http.ResponseWriter, r *http.Request) {
	s.presenterView(w, func(id string) (*usecase.PresenterView, error) {
		return s.presenter.ChooseUpgrade(r.Context(), id)
	}, chi.URLParam(r, "id"))
}

type paymentMethodRequest struct {
	Method model.PaymentMethod `json:"method"`
}

func (s *Server) handlePresenterPaymentMethod(w http.ResponseWriter, r *http.Request) {
	var req paymentMethodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.ErrInvalidArgument)
		return
	}
	s.presenterView(w, func(id string) (*usecase.PresenterView, error) {
		return s.presenter.SetPaymentMethod(r.Context(), id, req.Method)
	}, chi.URLParam(r, "id"))
}

func (s *Server) handlePresenterSwitchPlus(w http.ResponseWriter, r *http.Request) {
	s.presenterView(w, func(id string) (*usecase.PresenterView, error) {
		return s.presenter.SwitchToPlusPlan(r.Context(), id)
	}, chi.URLParam(r, "id"))
}

func (s *Server) handlePresenterCard(w http.ResponseWriter, r *http.Request) {
	var card model.CardDetails
	if err := json.NewDecoder(r.Body).Decode(&card); err != nil {
		writeError(w, domain.ErrInvalidArgument)
		return
	}
	id := chi.URLParam(r, "id")
	view, err := s.presenter.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	res, err := s.presenter.SubmitCard(r.Context(), id, card)
	if err != nil {
		writeError(w, err)
		return
	}
	metrics.IncPaymentDeclined(string(view.Offer.PlanTier))
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handlePresenterPixCopy(w http.ResponseWriter, r *http.Request) {
	key, msg, err := s.presenter.CopyPixKey(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	metrics.IncPixKeyCopied()
	writeJSON(w, http.StatusOK, struct {
		Key     string `json:"key"`
		Message string `json:"message"`
	}{key, msg})
}

func (s *Server) handlePresenterBack(w http.ResponseWriter, r *http.Request) {
	s.presenterView(w, func(id string) (*usecase.PresenterView, error) {
		return s.presenter.Back(r.Context(), id)
	}, chi.URLParam(r, "id"))
}

func (s *Server) handlePresenterClose(w http.ResponseWriter, r *http.Request) {
	if err := s.presenter.Close(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	metrics.SetPresentersOpen(s.presenter.OpenCount())
	w.WriteHeader(http.StatusNoContent)
}

// ===== shared plumbing =====

func (s *Server) presenterView(w http.ResponseWriter, fn func(id string) (*usecase.PresenterView, error), id string) {
	view, err := fn(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// gated runs the decision and either executes the action or answers with the
// opened presenter.
func (s *Server) gated(w http.ResponseWriter, r *http.Request, in usecase.DecideInput, action func() (interface{}, error)) {
	if in.Session == nil {
		in.Session = sessionFrom(r.Context())
	}
	dec := s.decider.Decide(r.Context(), in)
	if dec.Allowed {
		result, err := action()
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, gateResponse{Allowed: true, Result: result})
		return
	}
	s.openPresenter(w, r, in.FeatureID, dec.Request)
}

// respondGate decides and always answers with the gate envelope; there is no
// underlying action to run on the allowed path.
func (s *Server) respondGate(w http.ResponseWriter, r *http.Request, in usecase.DecideInput) {
	dec := s.decider.Decide(r.Context(), in)
	if dec.Allowed {
		writeJSON(w, http.StatusOK, gateResponse{Allowed: true})
		return
	}
	s.openPresenter(w, r, in.FeatureID, dec.Request)
}

func (s *Server) openPresenter(w http.ResponseWriter, r *http.Request, featureID string, req *model.UpsellRequest) {
	view, err := s.presenter.Open(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	metrics.IncUpsellFired(featureID, string(req.PlanTier))
	metrics.SetPresentersOpen(s.presenter.OpenCount())
	writeJSON(w, http.StatusOK, gateResponse{Allowed: false, Presenter: view})
}

func bearerToken(r *http.Request) string {
	hdr := r.Header.Get("Authorization")
	if hdr == "" || !strings.HasPrefix(strings.ToLower(hdr), "bearer ") {
		return ""
	}
	return strings.TrimSpace(hdr[7:])
}

func remoteIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		parts := strings.Split(fwd, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
