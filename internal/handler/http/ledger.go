package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/cmlabs-hris/payroll-ledger/internal/domain/ledger"
	"github.com/cmlabs-hris/payroll-ledger/internal/handler/http/response"
	"github.com/cmlabs-hris/payroll-ledger/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
)

type LedgerHandler interface {
	ListTransactions(w http.ResponseWriter, r *http.Request)
	GetBalance(w http.ResponseWriter, r *http.Request)
	ReverseTransaction(w http.ResponseWriter, r *http.Request)
}

type ledgerHandlerImpl struct {
	ledgerService ledger.LedgerService
}

func NewLedgerHandler(ledgerService ledger.LedgerService) LedgerHandler {
	return &ledgerHandlerImpl{ledgerService: ledgerService}
}

func (h *ledgerHandlerImpl) ListTransactions(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	filter, details := parseTransactionFilter(r)
	if len(details) > 0 {
		response.BadRequest(w, "Invalid query parameters", details)
		return
	}

	result, err := h.ledgerService.ScopedQuery(r.Context(), actor, filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *ledgerHandlerImpl) GetBalance(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	result, err := h.ledgerService.ScopedBalance(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *ledgerHandlerImpl) ReverseTransaction(w http.ResponseWriter, r *http.Request) {
	var req ledger.ReverseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.TransactionID = chi.URLParam(r, "id")

	result, err := h.ledgerService.Reverse(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Transaction reversed", ledger.ToTransactionResponse(result))
}

func parseTransactionFilter(r *http.Request) (ledger.TransactionFilter, map[string]string) {
	query := r.URL.Query()
	details := map[string]string{}
	filter := ledger.TransactionFilter{SortOrder: "desc"}

	optional := func(key string) *string {
		if v := query.Get(key); v != "" {
			return &v
		}
		return nil
	}
	filter.AccountID = optional("account_id")
	filter.CompanyID = optional("company_id")
	filter.BatchID = optional("batch_id")
	filter.ItemID = optional("item_id")

	if v := query.Get("type"); v != "" {
		t := ledger.TransactionType(v)
		filter.Type = &t
	}
	if v := query.Get("category"); v != "" {
		c := ledger.Category(v)
		filter.Category = &c
	}
	if v := query.Get("status"); v != "" {
		s := ledger.TransactionStatus(v)
		filter.Status = &s
	}

	for key, dst := range map[string]**time.Time{"from": &filter.From, "to": &filter.To} {
		if v := query.Get(key); v != "" {
			t, ok := validator.IsValidDateTime(v)
			if !ok {
				details[key] = "must be an RFC3339 timestamp"
				continue
			}
			*dst = &t
		}
	}
	for key, dst := range map[string]*int{"limit": &filter.Limit, "offset": &filter.Offset} {
		if v := query.Get(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				details[key] = "must be a non-negative integer"
				continue
			}
			*dst = n
		}
	}
	if v := query.Get("sort_order"); v != "" {
		if v != "asc" && v != "desc" {
			details["sort_order"] = "must be asc or desc"
		} else {
			filter.SortOrder = v
		}
	}

	return filter, details
}
