//go:build integration_test || all_tests

package integration_testing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/2beens/formcheck/internal/formcheck"
	"github.com/2beens/formcheck/internal/sessions"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lm(x, y float64) formcheck.Landmark {
	return formcheck.Landmark{X: x, Y: y, Visibility: 0.9}
}

func squatFrame(ts time.Time, kneeDeg float64) formcheck.Frame {
	rad := kneeDeg * math.Pi / 180
	dx, dy := 0.2*math.Sin(rad), -0.2*math.Cos(rad)
	return formcheck.Frame{
		Timestamp: ts,
		Landmarks: map[formcheck.LandmarkName]formcheck.Landmark{
			formcheck.LeftShoulder:  lm(0.45, 0.3),
			formcheck.RightShoulder: lm(0.55, 0.3),
			formcheck.LeftHip:       lm(0.45, 0.5),
			formcheck.RightHip:      lm(0.55, 0.5),
			formcheck.LeftKnee:      lm(0.45, 0.7),
			formcheck.RightKnee:     lm(0.55, 0.7),
			formcheck.LeftAnkle:     lm(0.45+dx, 0.7+dy),
			formcheck.RightAnkle:    lm(0.55+dx, 0.7+dy),
		},
	}
}

func (s *IntegrationTestSuite) do(ctx context.Context, method, path, token string, body any) (int, []byte) {
	t := s.T()

	var reqBody io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, serverEndpoint+path, reqBody)
	require.NoError(t, err)
	req.Header.Set("User-Agent", "test-agent")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("X-FORMCHECK-TOKEN", token)
	}

	resp, err := s.httpClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, respBytes
}

func (s *IntegrationTestSuite) TestSquatSession() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	t := s.T()

	status, body := s.do(ctx, http.MethodPost, "/sessions", "", map[string]string{"exercise": "squat"})
	require.Equal(t, http.StatusCreated, status, string(body))
	var started sessions.StartedSession
	require.NoError(t, json.Unmarshal(body, &started))
	require.NotEmpty(t, started.Token)

	framesPath := fmt.Sprintf("/sessions/%s/frames", started.ID)
	status, _ = s.do(ctx, http.MethodPost, framesPath, "", squatFrame(time.Now(), 170))
	assert.Equal(t, http.StatusUnauthorized, status)

	t0 := time.Now().UTC()
	knees := []float64{170, 170, 150, 110, 95, 90, 95, 115, 150, 170}
	var last formcheck.FrameResult
	for i, deg := range knees {
		status, body = s.do(ctx, http.MethodPost, framesPath, started.Token, squatFrame(t0.Add(time.Duration(i)*300*time.Millisecond), deg))
		require.Equal(t, http.StatusOK, status, string(body))
		require.NoError(t, json.Unmarshal(body, &last))
	}
	assert.Equal(t, 1, last.RepNumber)

	status, body = s.do(ctx, http.MethodPost, fmt.Sprintf("/sessions/%s/finish", started.ID), started.Token, nil)
	require.Equal(t, http.StatusOK, status, string(body))
	var finished sessions.FinishResult
	require.NoError(t, json.Unmarshal(body, &finished))
	assert.Equal(t, 1, finished.Summary.TotalReps)
	assert.Equal(t, 10, finished.Summary.TotalFrames)

	// the token dies with the session
	status, _ = s.do(ctx, http.MethodPost, fmt.Sprintf("/sessions/%s/finish", started.ID), started.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body = s.do(ctx, http.MethodGet, fmt.Sprintf("/sessions/%s/summary", started.ID), "", nil)
	require.Equal(t, http.StatusOK, status, string(body))
	var stored sessions.StoredSummary
	require.NoError(t, json.Unmarshal(body, &stored))
	assert.Equal(t, started.ID, stored.SessionID)
	assert.Equal(t, finished.Summary.AverageScore, stored.AverageScore)

	var storedReps int
	require.NoError(t, s.DB.QueryRowContext(ctx,
		`SELECT total_reps FROM session_summary WHERE session_id = $1`, started.ID,
	).Scan(&storedReps))
	assert.Equal(t, 1, storedReps)

	status, body = s.do(ctx, http.MethodGet, "/sessions/list/page/1/size/10", "", nil)
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Contains(t, string(body), started.ID)
}

func (s *IntegrationTestSuite) TestUnknownSummary() {
	status, _ := s.do(context.Background(), http.MethodGet, "/sessions/1b4e28ba-2fa1-11d2-883f-0016d3cca427/summary", "", nil)
	assert.Equal(s.T(), http.StatusNotFound, status)
}
