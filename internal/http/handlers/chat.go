package handlers

import "net/http"

type chatRequest struct {
	Prompt string `json:"prompt"`
}

type chatResponse struct {
	Text string `json:"text"`
}

// Chat handles POST /v1/chat.
func (a *App) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := a.decode(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	text, err := a.ChatSvc.Reply(r.Context(), req.Prompt)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, chatResponse{Text: text})
}
