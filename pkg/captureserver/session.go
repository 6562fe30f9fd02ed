package captureserver

import (
	"log/slog"
	"net"
	"os"
	"path/filepath"

	"github.com/relaypoint/flmtrace/pkg/buf"
)

// session handles one accepted connection: read 1024-byte chunks and
// append them to a lazily created .flm file, matching
// original_source/flmserv.py's ClientThread.run.
type session struct {
	conn   net.Conn
	cfg    Config
	id     int64
	logger *slog.Logger
	server *Server
}

func newSession(conn net.Conn, cfg Config, id int64, server *Server) *session {
	return &session{
		conn:   conn,
		cfg:    cfg,
		id:     id,
		logger: cfg.Logger.With("session", id, "remote", conn.RemoteAddr()),
		server: server,
	}
}

func (s *session) run() {
	defer s.conn.Close()
	s.logger.Info("connected")

	var (
		file     *os.File
		fileName string
	)
	defer func() {
		if file != nil {
			file.Close()
			s.logger.Info("capture closed", "file", fileName)
		}
		s.logger.Info("disconnected")
	}()

	chunk := buf.NewFromPool(buf.SizeChunk)
	defer chunk.Release()

	for {
		n, readErr := s.conn.Read(chunk.Data())
		if n > 0 {
			if file == nil {
				var createErr error
				fileName, file, createErr = s.createFile()
				if createErr != nil {
					s.logger.Error("failed to create capture file", "error", createErr)
					return
				}
			}
			if _, werr := file.Write(chunk.Data()[:n]); werr != nil {
				s.logger.Error("failed to write capture chunk", "file", fileName, "error", werr)
				return
			}
		}
		if readErr != nil {
			return
		}
	}
}

func (s *session) createFile() (string, *os.File, error) {
	if err := os.MkdirAll(s.cfg.Dir, 0o755); err != nil {
		return "", nil, err
	}
	idx := s.server.nextFileSeq()
	name := filepath.Join(s.cfg.Dir, logFileName(idx))
	f, err := os.Create(name)
	if err != nil {
		return "", nil, err
	}
	s.logger.Info("capture file created", "file", name)
	return name, f, nil
}
