package handlers

import (
	"fmt"
	"net/http"
	"sort"
	"time"

	"luckyyield/internal/format"
	"luckyyield/internal/logger"
	"luckyyield/internal/storage"
)

// RaffleResponse is one raffle as rendered by the API, with the
// display strings the dashboard shows verbatim.
type RaffleResponse struct {
	ID                 string `json:"id"`
	Title              string `json:"title"`
	Status             string `json:"status"`
	EndsAt             string `json:"ends_at"`
	EndsIn             string `json:"ends_in"`
	TicketPrice        int64  `json:"ticket_price"`
	TicketPriceDisplay string `json:"ticket_price_display"`
	Pool               int64  `json:"pool"`
	PoolDisplay        string `json:"pool_display"`
	PayoutInfo         string `json:"payout_info"`
	Description        string `json:"description"`
	YieldProtocol      string `json:"yield_protocol"`
}

// HandleRaffles handles the GET /api/raffles endpoint. Active raffles
// come first, soonest ending on top.
func (h *Handlers) HandleRaffles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondWithError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	raffles, err := h.catalog.List()
	if err != nil {
		logger.Debug("", "raffles_list_error", "error="+err.Error())
		respondWithError(w, "Failed to fetch raffles", http.StatusInternalServerError)
		return
	}

	sort.Slice(raffles, func(i, j int) bool {
		if raffles[i].Status != raffles[j].Status {
			return raffles[i].Status == storage.RaffleStatusActive
		}
		return raffles[i].EndsAt.Before(raffles[j].EndsAt)
	})

	now := time.Now()
	resp := make([]RaffleResponse, 0, len(raffles))
	for _, raffle := range raffles {
		resp = append(resp, raffleResponse(raffle, now))
	}

	logger.Debug("", "raffles_list_success", fmt.Sprintf("count=%d", len(resp)))
	respondJSON(w, http.StatusOK, resp)
}

func raffleResponse(r *storage.Raffle, now time.Time) RaffleResponse {
	return RaffleResponse{
		ID:                 r.ID,
		Title:              r.Title,
		Status:             string(r.Status),
		EndsAt:             r.EndsAt.Format(time.RFC3339),
		EndsIn:             format.Countdown(r.EndsAt, now),
		TicketPrice:        r.TicketPrice,
		TicketPriceDisplay: format.USDC(r.TicketPrice),
		Pool:               r.Pool,
		PoolDisplay:        format.Pool(r.Pool),
		PayoutInfo:         r.PayoutInfo,
		Description:        r.Description,
		YieldProtocol:      r.YieldProtocol,
	}
}
