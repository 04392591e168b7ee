// Package grpc exposes the public schedule, scrape ingestion and the review
// approval path over gRPC for the scraping pipeline and internal tools.
package grpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/Billy-Davies-2/picklewickel-scores/internal/errs"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/ingest"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/logger"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/pubsub"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/service"
)

// Server implements the gRPC Scores service
type Server struct {
	svc    *service.Service
	pubsub *pubsub.PubSub
}

var _ ScoresServer = (*Server)(nil)

// NewServer creates a new gRPC server
func NewServer(svc *service.Service, ps *pubsub.PubSub) *Server {
	return &Server{
		svc:    svc,
		pubsub: ps,
	}
}

// GetSchedule returns the public schedule for {"date": "YYYY-MM-DD"}. Like
// the HTTP page it degrades to an empty schedule.
func (s *Server) GetSchedule(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	date := req.GetFields()["date"].GetStringValue()
	logger.Debug("gRPC: Getting schedule", "date", date)

	view, err := s.svc.Schedule(ctx, date)
	if err != nil {
		logger.Error("gRPC: Failed to build schedule", "error", err)
		view = s.svc.EmptySchedule(date)
	}
	return toStruct(view)
}

// GetMatch returns {"id": ...} from either collection
func (s *Server) GetMatch(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id := req.GetFields()["id"].GetStringValue()
	if id == "" {
		return nil, status.Error(codes.InvalidArgument, "missing id")
	}
	m, err := s.svc.GetMatch(ctx, id)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(m)
}

// IngestScrape reconciles one scraper payload. A top-level "dryRun": true
// computes the result without saving.
func (s *Server) IngestScrape(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var p ingest.ScrapePayload
	if err := fromStruct(req, &p); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	dryRun := req.GetFields()["dryRun"].GetBoolValue()

	logger.Info("gRPC: Ingesting scraped match", "target_id", p.ScrapeTargetID, "dry_run", dryRun)
	res, err := s.svc.IngestScrape(ctx, p, dryRun)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(res)
}

// ApproveMatch approves {"id": ...} or, all or nothing, {"ids": [...]}
func (s *Server) ApproveMatch(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	var ids []string
	if id := fields["id"].GetStringValue(); id != "" {
		ids = append(ids, id)
	}
	for _, v := range fields["ids"].GetListValue().GetValues() {
		ids = append(ids, v.GetStringValue())
	}

	approved, err := s.svc.ApproveMany(ctx, ids)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(map[string]any{"approved": len(approved), "matches": approved})
}

// StreamEvents streams events to clients
func (s *Server) StreamEvents(_ *emptypb.Empty, stream Scores_StreamEventsServer) error {
	logger.Debug("gRPC: New client connected to event stream")
	eventChan := s.pubsub.Subscribe()
	defer s.pubsub.Unsubscribe(eventChan)

	for {
		select {
		case event, ok := <-eventChan:
			if !ok {
				return nil
			}
			msg, err := toStruct(event)
			if err != nil {
				logger.Warn("gRPC: Dropping unencodable event", "event_type", event.Type, "error", err)
				continue
			}
			if err := stream.Send(msg); err != nil {
				logger.Error("gRPC: Failed to send event to stream", "error", err)
				return err
			}
		case <-stream.Context().Done():
			logger.Debug("gRPC: Client disconnected from event stream")
			return nil
		}
	}
}

// toStatus maps the error taxonomy onto gRPC codes.
func toStatus(err error) error {
	switch {
	case errors.Is(err, errs.ErrIngestionDisabled):
		return status.Error(codes.Unavailable, err.Error())
	case errs.IsValidation(err):
		return status.Error(codes.InvalidArgument, err.Error())
	case errs.IsNotFound(err):
		return status.Error(codes.NotFound, err.Error())
	case errs.IsPolicy(err):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errs.IsConflict(err):
		return status.Error(codes.AlreadyExists, err.Error())
	default:
		logger.Error("gRPC: Request failed", "error", err)
		return status.Error(codes.Internal, err.Error())
	}
}

// toStruct converts any JSON-encodable value through its JSON form.
func toStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

func fromStruct(in *structpb.Struct, v any) error {
	data, err := json.Marshal(in.AsMap())
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	return nil
}
