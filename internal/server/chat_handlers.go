package server

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"

	"emotlink/internal/util"
	"emotlink/pkg/domain"
)

func (s *Server) handleChatStart(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	start, err := s.app.StartChat(r.Context(), user)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, start)
}

type chatMessageRequest struct {
	RoomID  string `json:"room_id"`
	Message string `json:"message"`
}

func (s *Server) handleChatMessage(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req chatMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.RoomID == "" {
		writeError(w, http.StatusBadRequest, "room_id is required")
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	turn, err := s.app.PostMessage(r.Context(), user, req.RoomID, req.Message)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, turn)
}

// maxRecordingBytes bounds an uploaded voice recording.
const maxRecordingBytes = 10 << 20

func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if s.transcriber == nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"transcript": "음성 인식 서비스 키가 설정되지 않았습니다."})
		return
	}
	if err := r.ParseMultipartForm(maxRecordingBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"transcript": "음성 파일을 받지 못했습니다."})
		return
	}
	file, header, err := r.FormFile("audio_file")
	if err != nil || header.Filename == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"transcript": "음성 파일을 받지 못했습니다."})
		return
	}
	defer file.Close()

	audio, err := io.ReadAll(io.LimitReader(file, maxRecordingBytes))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"transcript": "음성 처리 중 알 수 없는 오류가 발생했습니다."})
		return
	}

	transcript, err := s.transcriber.Transcribe(r.Context(), audio)
	if err != nil {
		slog.Error("speech transcription failed", "user_id", user.ID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"transcript": "음성을 텍스트로 변환하는 데 실패했습니다."})
		return
	}

	if s.archive != nil {
		key := "recordings/" + user.ID + "/" + util.NewID() + ".webm"
		if err := s.archive.Put(r.Context(), key, bytes.NewReader(audio), int64(len(audio)), "audio/webm"); err != nil {
			slog.Warn("recording archive failed", "user_id", user.ID, "error", err)
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"transcript": transcript})
}
