package model

import (
	"context"
	"fmt"
	"testing"

	"github.com/cinerec/cinerec/core"
)

// stubMLService 记录最后一次请求并返回预置响应。
type stubMLService struct {
	lastReq *core.MLPredictRequest
	resp    *core.MLPredictResponse
	err     error
}

func (s *stubMLService) Predict(_ context.Context, req *core.MLPredictRequest) (*core.MLPredictResponse, error) {
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	return s.resp, nil
}

func (s *stubMLService) Health(context.Context) error { return nil }
func (s *stubMLService) Close(context.Context) error  { return nil }

func TestRemoteClassifier(t *testing.T) {
	svc := &stubMLService{resp: &core.MLPredictResponse{Classes: []string{"joy"}}}
	c := &RemoteClassifier{Service: svc, ModelName: "emotion"}

	label, err := c.PredictLabel(context.Background(), "i am so happy")
	if err != nil {
		t.Fatal(err)
	}
	if label != "joy" {
		t.Errorf("label = %q, want joy", label)
	}
	if svc.lastReq.ModelName != "emotion" || len(svc.lastReq.Texts) != 1 {
		t.Errorf("request = %+v", svc.lastReq)
	}
}

func TestRemoteClassifierEmptyResponse(t *testing.T) {
	svc := &stubMLService{resp: &core.MLPredictResponse{}}
	c := &RemoteClassifier{Service: svc, ModelName: "emotion"}
	if _, err := c.PredictLabel(context.Background(), "x"); err == nil {
		t.Error("want error for empty response")
	}
}

func TestRemotePredictor(t *testing.T) {
	svc := &stubMLService{resp: &core.MLPredictResponse{Predictions: []float64{4.2}}}
	p := &RemotePredictor{Service: svc, ModelName: "rating"}

	rating, err := p.PredictRating(context.Background(), 42, 155)
	if err != nil {
		t.Fatal(err)
	}
	if rating != 4.2 {
		t.Errorf("rating = %v, want 4.2", rating)
	}
	want := [][]float64{{42, 155}}
	if len(svc.lastReq.Instances) != 1 ||
		svc.lastReq.Instances[0][0] != want[0][0] ||
		svc.lastReq.Instances[0][1] != want[0][1] {
		t.Errorf("instances = %v, want %v", svc.lastReq.Instances, want)
	}
}

func TestRemotePredictorErrors(t *testing.T) {
	tests := []struct {
		name string
		svc  *stubMLService
	}{
		{name: "service error", svc: &stubMLService{err: fmt.Errorf("connection refused")}},
		{name: "empty response", svc: &stubMLService{resp: &core.MLPredictResponse{}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &RemotePredictor{Service: tt.svc, ModelName: "rating"}
			if _, err := p.PredictRating(context.Background(), 1, 2); err == nil {
				t.Error("want error, got nil")
			}
		})
	}
}
