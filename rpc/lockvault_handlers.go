package rpc

import (
	"net/http"
	"time"
)

type claimAllParams struct {
	Beneficiary string `json:"beneficiary"`
}

type claimParams struct {
	Beneficiary string   `json:"beneficiary"`
	IDs         []uint64 `json:"ids"`
}

type claimResult struct {
	Amount string `json:"amount"`
}

type scheduleJSON struct {
	Index   uint64 `json:"index"`
	Amount  string `json:"amount"`
	Start   int64  `json:"start"`
	Unlock  int64  `json:"unlock"`
	Claimed string `json:"claimed"`
	Status  string `json:"status"`
}

type balanceResult struct {
	Amount string `json:"amount"`
}

type remainingLockResult struct {
	Seconds int64 `json:"seconds"`
}

func (s *Server) handleClaimAll(w http.ResponseWriter, req *RPCRequest) {
	var params claimAllParams
	if err := singleParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	beneficiary, err := parseAddress(params.Beneficiary)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	amount, err := s.node.ClaimAll(beneficiary)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, claimResult{Amount: amount.String()})
}

func (s *Server) handleClaim(w http.ResponseWriter, req *RPCRequest) {
	var params claimParams
	if err := singleParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	beneficiary, err := parseAddress(params.Beneficiary)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	if len(params.IDs) == 0 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", "schedule ids required")
		return
	}
	amount, err := s.node.Claim(beneficiary, params.IDs)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, claimResult{Amount: amount.String()})
}

func (s *Server) handleSchedules(w http.ResponseWriter, req *RPCRequest) {
	var params addressParams
	if err := singleParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	addr, err := parseAddress(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	schedules, err := s.node.SchedulesOf(addr)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	now := time.Now().Unix()
	out := make([]scheduleJSON, len(schedules))
	for i, schedule := range schedules {
		out[i] = scheduleJSON{
			Index:   uint64(i),
			Amount:  schedule.Amount.String(),
			Start:   schedule.Start,
			Unlock:  schedule.Unlock,
			Claimed: schedule.Claimed.String(),
			Status:  schedule.Status(now).String(),
		}
	}
	writeResult(w, req.ID, out)
}

func (s *Server) handleLocked(w http.ResponseWriter, req *RPCRequest) {
	var params addressParams
	if err := singleParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	addr, err := parseAddress(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	locked, err := s.node.LockedBalance(addr)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, balanceResult{Amount: locked.String()})
}

func (s *Server) handleClaimable(w http.ResponseWriter, req *RPCRequest) {
	var params addressParams
	if err := singleParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	addr, err := parseAddress(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	claimable, err := s.node.Claimable(addr)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, balanceResult{Amount: claimable.String()})
}

func (s *Server) handleRemainingLock(w http.ResponseWriter, req *RPCRequest) {
	var params addressParams
	if err := singleParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	addr, err := parseAddress(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	remaining, err := s.node.RemainingLock(addr)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, remainingLockResult{Seconds: remaining})
}

func (s *Server) handleEvents(w http.ResponseWriter, req *RPCRequest) {
	writeResult(w, req.ID, s.node.RecentEvents())
}
