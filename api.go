package main

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"
	"github.com/raidar/soulbound/market"
)

// Server exposes the public operation surface over JSON. The host envelope,
// caller and attached deposit, arrives as the call field of the request body,
// identity is the trusted host's problem, not this surface's.
type Server struct {
	market *market.Marketplace
	router *httprouter.Router
}

type callRequest struct {
	Call    market.Call          `json:"call"`
	Item    *market.ItemCreation `json:"item,omitempty"`
	BaseURI string               `json:"base_uri,omitempty"`
	Icon    string               `json:"icon,omitempty"`
}

func NewServer(mkt *market.Marketplace) *Server {
	s := &Server{market: mkt, router: httprouter.New()}

	s.router.POST("/items", s.mint)
	s.router.POST("/items/:id/buy", s.buy)
	s.router.POST("/items/:id/grant/:account", s.buyForUser)

	s.router.GET("/tokens", s.listHoldings)
	s.router.GET("/tokens/:id", s.resolveHolding)
	s.router.POST("/tokens/:id/transfer", s.transfer)

	s.router.GET("/accounts/:account/tokens", s.holdingsForAccount)
	s.router.DELETE("/accounts/:account/tokens/:id", s.burn)

	s.router.GET("/supply", s.totalSupply)

	s.router.GET("/metadata", s.contractMetadata)
	s.router.POST("/metadata/base-uri", s.updateBaseURI)
	s.router.POST("/metadata/icon", s.updateIcon)

	s.router.GET("/whitelist", s.whitelist)
	s.router.POST("/whitelist/:account", s.addWhitelisted)
	s.router.DELETE("/whitelist/:account", s.removeWhitelisted)

	return s
}

func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s.router)
}

func (s *Server) mint(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	body, ok := decodeCall(w, r)
	if !ok {
		return
	}
	data, err := s.market.Process(r.Context(), &market.Operation{
		Action: market.ActionMint,
		Call:   body.Call,
		Item:   body.Item,
	})
	render(w, data, err)
}

func (s *Server) buy(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	body, ok := decodeCall(w, r)
	if !ok {
		return
	}
	data, err := s.market.Process(r.Context(), &market.Operation{
		Action: market.ActionBuy,
		Call:   body.Call,
		ItemID: params.ByName("id"),
	})
	render(w, data, err)
}

func (s *Server) buyForUser(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	body, ok := decodeCall(w, r)
	if !ok {
		return
	}
	data, err := s.market.Process(r.Context(), &market.Operation{
		Action:  market.ActionBuyForUser,
		Call:    body.Call,
		ItemID:  params.ByName("id"),
		Account: params.ByName("account"),
	})
	render(w, data, err)
}

func (s *Server) burn(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	body, ok := decodeCall(w, r)
	if !ok {
		return
	}
	data, err := s.market.Process(r.Context(), &market.Operation{
		Action:  market.ActionBurn,
		Call:    body.Call,
		ItemID:  params.ByName("id"),
		Account: params.ByName("account"),
	})
	render(w, data, err)
}

func (s *Server) transfer(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	body, ok := decodeCall(w, r)
	if !ok {
		return
	}
	data, err := s.market.Process(r.Context(), &market.Operation{
		Action: market.ActionTransfer,
		Call:   body.Call,
		ItemID: params.ByName("id"),
	})
	render(w, data, err)
}

func (s *Server) resolveHolding(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	data, err := s.market.ResolveHolding(params.ByName("id"))
	render(w, data, err)
}

func (s *Server) listHoldings(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	skip, limit := pageParams(r)
	data, err := s.market.ListHoldings(skip, limit)
	render(w, data, err)
}

func (s *Server) holdingsForAccount(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	skip, limit := pageParams(r)
	data, err := s.market.HoldingsForAccount(params.ByName("account"), skip, limit)
	render(w, data, err)
}

func (s *Server) totalSupply(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	supply, err := s.market.TotalSupply()
	render(w, map[string]uint64{"supply": supply}, err)
}

func (s *Server) contractMetadata(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	data, err := s.market.ContractMetadata()
	render(w, data, err)
}

func (s *Server) updateBaseURI(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	body, ok := decodeCall(w, r)
	if !ok {
		return
	}
	data, err := s.market.UpdateBaseURI(&body.Call, body.BaseURI)
	render(w, data, err)
}

func (s *Server) updateIcon(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	body, ok := decodeCall(w, r)
	if !ok {
		return
	}
	data, err := s.market.UpdateIcon(&body.Call, body.Icon)
	render(w, data, err)
}

func (s *Server) whitelist(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	data, err := s.market.Whitelist()
	render(w, data, err)
}

func (s *Server) addWhitelisted(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	body, ok := decodeCall(w, r)
	if !ok {
		return
	}
	err := s.market.AddWhitelistedCreator(r.Context(), &body.Call, params.ByName("account"))
	render(w, nil, err)
}

func (s *Server) removeWhitelisted(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	body, ok := decodeCall(w, r)
	if !ok {
		return
	}
	err := s.market.RemoveWhitelistedCreator(r.Context(), &body.Call, params.ByName("account"))
	render(w, nil, err)
}

func decodeCall(w http.ResponseWriter, r *http.Request) (*callRequest, bool) {
	var body callRequest
	err := json.NewDecoder(r.Body).Decode(&body)
	if err != nil {
		renderError(w, http.StatusBadRequest, "invalid", err.Error(), nil)
		return nil, false
	}
	return &body, true
}

func pageParams(r *http.Request) (int, int) {
	skip, _ := strconv.Atoi(r.URL.Query().Get("skip"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	return skip, limit
}

func render(w http.ResponseWriter, data interface{}, err error) {
	if err == nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if data == nil {
			data = map[string]string{}
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"data": data})
		return
	}

	switch e := err.(type) {
	case market.NotFoundError:
		renderError(w, http.StatusNotFound, "not_found", e.Error(), nil)
	case market.InvalidError:
		renderError(w, http.StatusBadRequest, "invalid", e.Error(), nil)
	case market.AccessError:
		renderError(w, http.StatusForbidden, "unauthorized", e.Error(), nil)
	case market.UnsupportedError:
		renderError(w, http.StatusBadRequest, "unsupported", e.Error(), nil)
	case *market.InsufficientDepositError:
		required := e.Required.String()
		renderError(w, http.StatusPaymentRequired, "insufficient_deposit", e.Error(), &required)
	default:
		renderError(w, http.StatusInternalServerError, "internal", e.Error(), nil)
	}
}

func renderError(w http.ResponseWriter, status int, kind, message string, required *string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	body := map[string]interface{}{"kind": kind, "message": message}
	if required != nil {
		body["required"] = *required
	}
	json.NewEncoder(w).Encode(map[string]interface{}{"error": body})
}
