package rpc

import (
	"net/http"
)

type callerParams struct {
	Caller string `json:"caller"`
}

type setRateParams struct {
	Caller string `json:"caller"`
	Rate   uint64 `json:"rate"`
}

type buyParams struct {
	Buyer  string `json:"buyer"`
	Amount string `json:"amount"`
}

type addressParams struct {
	Address string `json:"address"`
}

type previewParams struct {
	Amount string `json:"amount"`
}

type okResult struct {
	OK bool `json:"ok"`
}

type withdrawResult struct {
	Amount string `json:"amount"`
}

type saleStatusResult struct {
	Active       bool   `json:"active"`
	Ended        bool   `json:"ended"`
	StartTime    int64  `json:"startTime"`
	EndTime      int64  `json:"endTime"`
	Rate         uint64 `json:"rate"`
	TotalRaised  string `json:"totalRaised"`
	TotalSold    string `json:"totalSold"`
	Participants uint64 `json:"participants"`
}

type purchaseRecordResult struct {
	PaymentContributed string `json:"paymentContributed"`
	SaleReceived       string `json:"saleReceived"`
	Participated       bool   `json:"participated"`
}

type buyResult struct {
	PaymentAmount string `json:"paymentAmount"`
	SaleAmount    string `json:"saleAmount"`
	Rate          uint64 `json:"rate"`
	Start         int64  `json:"start"`
	Unlock        int64  `json:"unlock"`
}

type previewResult struct {
	Amount string `json:"amount"`
}

func (s *Server) handleSaleStart(w http.ResponseWriter, req *RPCRequest) {
	var params callerParams
	if err := singleParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	if err := s.node.StartSale(caller); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, okResult{OK: true})
}

func (s *Server) handleSaleEnd(w http.ResponseWriter, req *RPCRequest) {
	var params callerParams
	if err := singleParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	if err := s.node.EndSale(caller); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, okResult{OK: true})
}

func (s *Server) handleEmergencyStop(w http.ResponseWriter, req *RPCRequest) {
	var params callerParams
	if err := singleParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	if err := s.node.EmergencyStop(caller); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, okResult{OK: true})
}

func (s *Server) handleSetRate(w http.ResponseWriter, req *RPCRequest) {
	var params setRateParams
	if err := singleParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	if err := s.node.SetRate(caller, params.Rate); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, okResult{OK: true})
}

func (s *Server) handleBuy(w http.ResponseWriter, req *RPCRequest) {
	var params buyParams
	if err := singleParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	buyer, err := parseAddress(params.Buyer)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	receipt, err := s.node.Purchase(buyer, amount)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, buyResult{
		PaymentAmount: receipt.PaymentAmount.String(),
		SaleAmount:    receipt.SaleAmount.String(),
		Rate:          receipt.Rate,
		Start:         receipt.Start,
		Unlock:        receipt.Unlock,
	})
}

func (s *Server) handleWithdrawPayment(w http.ResponseWriter, req *RPCRequest) {
	var params callerParams
	if err := singleParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	amount, err := s.node.WithdrawPayment(caller)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, withdrawResult{Amount: amount.String()})
}

func (s *Server) handleWithdrawUnsold(w http.ResponseWriter, req *RPCRequest) {
	var params callerParams
	if err := singleParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	amount, err := s.node.WithdrawUnsoldTokens(caller)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, withdrawResult{Amount: amount.String()})
}

func (s *Server) handleSaleStatus(w http.ResponseWriter, req *RPCRequest) {
	status, err := s.node.SaleStatus()
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, saleStatusResult{
		Active:       status.Active,
		Ended:        status.Ended,
		StartTime:    status.StartTime,
		EndTime:      status.EndTime,
		Rate:         status.Rate,
		TotalRaised:  status.TotalRaised.String(),
		TotalSold:    status.TotalSold.String(),
		Participants: status.Participants,
	})
}

func (s *Server) handleRecord(w http.ResponseWriter, req *RPCRequest) {
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
	record, err := s.node.PurchaseRecordOf(addr)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, purchaseRecordResult{
		PaymentContributed: record.PaymentContributed.String(),
		SaleReceived:       record.SaleReceived.String(),
		Participated:       record.Participated,
	})
}

func (s *Server) handlePreviewSale(w http.ResponseWriter, req *RPCRequest) {
	var params previewParams
	if err := singleParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	sale, err := s.node.PreviewSaleAmount(amount)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, previewResult{Amount: sale.String()})
}

func (s *Server) handlePreviewPayment(w http.ResponseWriter, req *RPCRequest) {
	var params previewParams
	if err := singleParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	payment, err := s.node.PreviewPaymentAmount(amount)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, previewResult{Amount: payment.String()})
}
