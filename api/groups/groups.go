// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package groups

import (
	"math/big"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/focus/api/utils"
	"github.com/vechain/focus/staking"
	"github.com/vechain/focus/thor"
)

// Groups serves the staking operations over HTTP. The current time of every call is taken from clock.
type Groups struct {
	staking *staking.Staking
	clock   func() uint64
}

func New(s *staking.Staking, clock func() uint64) *Groups {
	return &Groups{
		staking: s,
		clock:   clock,
	}
}

func parseID(req *http.Request) (uint64, error) {
	id, err := strconv.ParseUint(mux.Vars(req)["id"], 10, 64)
	if err != nil {
		return 0, utils.BadRequest(errors.WithMessage(err, "id"))
	}
	return id, nil
}

type validator interface {
	Validate() error
}

// parseBody decodes the request body into v and validates the identities it carries.
func parseBody(req *http.Request, v validator) error {
	if err := utils.ParseJSON(req.Body, v); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	if err := v.Validate(); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	return nil
}

func amount(v *big.Int) *Amount {
	return &Amount{Amount: (*math.HexOrDecimal256)(v)}
}

func (g *Groups) handleCreate(w http.ResponseWriter, req *http.Request) error {
	var body CreateGroup
	if err := parseBody(req, &body); err != nil {
		return err
	}
	params, err := body.Params()
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	id, err := g.staking.CreateGroup(params, body.Creator)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &CreateGroupResult{ID: id})
}

func (g *Groups) handleNextID(w http.ResponseWriter, _ *http.Request) error {
	return utils.WriteJSON(w, &NextGroupID{NextID: g.staking.NextGroupID()})
}

func (g *Groups) handleGetGroup(w http.ResponseWriter, req *http.Request) error {
	id, err := parseID(req)
	if err != nil {
		return err
	}
	snap, err := g.staking.GetGroupSummary(id)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, convertSummary(snap))
}

func (g *Groups) handleGetState(w http.ResponseWriter, req *http.Request) error {
	id, err := parseID(req)
	if err != nil {
		return err
	}
	state, err := g.staking.GetGroupState(id)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &State{State: state.String()})
}

func (g *Groups) handleGetParticipant(w http.ResponseWriter, req *http.Request) error {
	id, err := parseID(req)
	if err != nil {
		return err
	}
	index, err := strconv.Atoi(mux.Vars(req)["index"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "index"))
	}
	p, err := g.staking.GetParticipant(id, index)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, convertParticipant(&p))
}

func (g *Groups) handleGetPayout(w http.ResponseWriter, req *http.Request) error {
	id, err := parseID(req)
	if err != nil {
		return err
	}
	addr, err := thor.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "address"))
	}
	payout, err := g.staking.Payout(id, addr)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, amount(payout))
}

func (g *Groups) handleJoin(w http.ResponseWriter, req *http.Request) error {
	id, err := parseID(req)
	if err != nil {
		return err
	}
	var body Join
	if err := parseBody(req, &body); err != nil {
		return err
	}
	if err := g.staking.JoinGroup(id, body.Participant, (*big.Int)(body.Amount), g.clock()); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (g *Groups) handleStart(w http.ResponseWriter, req *http.Request) error {
	id, err := parseID(req)
	if err != nil {
		return err
	}
	var body CallerCall
	if err := parseBody(req, &body); err != nil {
		return err
	}
	if err := g.staking.StartSession(id, body.Caller, g.clock()); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (g *Groups) handlePing(w http.ResponseWriter, req *http.Request) error {
	id, err := parseID(req)
	if err != nil {
		return err
	}
	var body ParticipantCall
	if err := parseBody(req, &body); err != nil {
		return err
	}
	if err := g.staking.UserPing(id, body.Participant, g.clock()); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (g *Groups) handleMarkAFK(w http.ResponseWriter, req *http.Request) error {
	id, err := parseID(req)
	if err != nil {
		return err
	}
	var body MarkAFK
	if err := parseBody(req, &body); err != nil {
		return err
	}
	if err := g.staking.MarkAFK(id, body.Target, body.Caller, g.clock()); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (g *Groups) handleComplete(w http.ResponseWriter, req *http.Request) error {
	id, err := parseID(req)
	if err != nil {
		return err
	}
	var body ParticipantCall
	if err := parseBody(req, &body); err != nil {
		return err
	}
	if err := g.staking.MarkCompleted(id, body.Participant, g.clock()); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (g *Groups) handleFinalize(w http.ResponseWriter, req *http.Request) error {
	id, err := parseID(req)
	if err != nil {
		return err
	}
	var body CallerCall
	if err := parseBody(req, &body); err != nil {
		return err
	}
	if err := g.staking.FinalizeGroup(id, body.Caller, g.clock()); err != nil {
		return err
	}
	snap, err := g.staking.GetGroupSummary(id)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, convertSummary(snap))
}

func (g *Groups) handleWithdraw(w http.ResponseWriter, req *http.Request) error {
	id, err := parseID(req)
	if err != nil {
		return err
	}
	var body ParticipantCall
	if err := parseBody(req, &body); err != nil {
		return err
	}
	paid, err := g.staking.Withdraw(id, body.Participant, g.clock())
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, amount(paid))
}

func (g *Groups) handleSetBot(w http.ResponseWriter, req *http.Request) error {
	id, err := parseID(req)
	if err != nil {
		return err
	}
	var body SetBot
	if err := parseBody(req, &body); err != nil {
		return err
	}
	if err := g.staking.SetBot(id, body.Caller, body.Bot); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (g *Groups) handleSweep(w http.ResponseWriter, req *http.Request) error {
	id, err := parseID(req)
	if err != nil {
		return err
	}
	var body CallerCall
	if err := parseBody(req, &body); err != nil {
		return err
	}
	swept, err := g.staking.SweepRemainder(id, body.Caller, g.clock())
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, amount(swept))
}

func (g *Groups) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodPost).
		Name("POST /groups").
		HandlerFunc(utils.WrapHandlerFunc(g.handleCreate))
	sub.Path("/next-id").
		Methods(http.MethodGet).
		Name("GET /groups/next-id").
		HandlerFunc(utils.WrapHandlerFunc(g.handleNextID))
	sub.Path("/{id:[0-9]+}").
		Methods(http.MethodGet).
		Name("GET /groups/{id}").
		HandlerFunc(utils.WrapHandlerFunc(g.handleGetGroup))
	sub.Path("/{id:[0-9]+}/state").
		Methods(http.MethodGet).
		Name("GET /groups/{id}/state").
		HandlerFunc(utils.WrapHandlerFunc(g.handleGetState))
	sub.Path("/{id:[0-9]+}/participants/{index:[0-9]+}").
		Methods(http.MethodGet).
		Name("GET /groups/{id}/participants/{index}").
		HandlerFunc(utils.WrapHandlerFunc(g.handleGetParticipant))
	sub.Path("/{id:[0-9]+}/payouts/{address}").
		Methods(http.MethodGet).
		Name("GET /groups/{id}/payouts/{address}").
		HandlerFunc(utils.WrapHandlerFunc(g.handleGetPayout))

	for _, op := range []struct {
		path    string
		handler utils.HandlerFunc
	}{
		{"join", g.handleJoin},
		{"start", g.handleStart},
		{"ping", g.handlePing},
		{"afk", g.handleMarkAFK},
		{"complete", g.handleComplete},
		{"finalize", g.handleFinalize},
		{"withdraw", g.handleWithdraw},
		{"bot", g.handleSetBot},
		{"sweep", g.handleSweep},
	} {
		sub.Path("/{id:[0-9]+}/" + op.path).
			Methods(http.MethodPost).
			Name("POST /groups/{id}/" + op.path).
			HandlerFunc(utils.WrapHandlerFunc(op.handler))
	}
}
