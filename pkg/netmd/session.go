package netmd

import (
	"context"
	"crypto/rand"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/hansbonini/mdtools/pkg/common"
)

// Session is one secure download session. It must be closed before the
// device is released and must not be reused for another transfer.
type Session struct {
	ID uuid.UUID

	md         *Interface
	ekb        EKB
	sessionKey []byte
	candidates []EKB
}

// NewSession prepares a session on md. Init must be called before use.
func NewSession(md *Interface) *Session {
	return &Session{ID: uuid.New(), md: md, candidates: EKBs}
}

// EKB returns the key block selected by Init
func (s *Session) EKB() EKB {
	return s.ekb
}

// Init enters the secure session, authenticates with the selected EKB and
// derives the session key.
func (s *Session) Init() error {
	if err := s.md.EnterSecureSession(); err != nil {
		return err
	}
	leafID, err := s.md.LeafID()
	if err != nil {
		return err
	}
	link := s.md.Link()
	ekb, err := SelectEKB(s.candidates, leafID, link.Vendor, link.Product)
	if err != nil {
		return err
	}
	common.LogDebug(common.DebugEKBSelected, ekb.Name, leafID)
	if err := s.md.SendKeyData(ekb.ID, ekb.Chain, ekb.Depth, ekb.Signature); err != nil {
		return err
	}

	hostNonce := make([]byte, NonceSize)
	if _, err := rand.Read(hostNonce); err != nil {
		return err
	}
	deviceNonce, err := s.md.SessionKeyExchange(hostNonce)
	if err != nil {
		return err
	}
	key, err := RetailMAC(ekb.RootKey, append(hostNonce, deviceNonce...))
	if err != nil {
		return err
	}
	s.ekb = ekb
	s.sessionKey = key
	common.LogInfo(common.InfoSessionEstablished, s.ID, ekb.ID)
	return nil
}

// DownloadTrack encrypts and transfers t, then titles and commits the new
// track. Encryption runs ahead of the transfer by one packet.
func (s *Session) DownloadTrack(ctx context.Context, t *Track, progress TransferProgress) (*DownloadResult, error) {
	if s.sessionKey == nil {
		return nil, common.FormatErrorString(common.ErrSessionNotInitialized, "call Init first")
	}
	enc, err := NewEncryptor(t)
	if err != nil {
		return nil, err
	}
	if err := s.md.SetupDownload(t.ContentID(), t.KEK(), s.sessionKey); err != nil {
		return nil, err
	}

	packets := make(chan Packet, 1)
	var result *DownloadResult
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return enc.Stream(gctx, packets)
	})
	g.Go(func() error {
		var err error
		result, err = s.md.SendTrack(gctx, t.Format, t.DiscFormat(), t.FrameCount(), t.TotalSize(), packets, s.sessionKey, progress)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := s.md.SetTrackTitle(result.Track, t.Title, false); err != nil {
		return nil, err
	}
	if t.FullWidthTitle != "" {
		if err := s.md.SetTrackTitle(result.Track, t.FullWidthTitle, true); err != nil {
			return nil, err
		}
	}
	if err := s.md.CommitTrack(result.Track, s.sessionKey); err != nil {
		return nil, err
	}
	common.LogInfo(common.InfoTrackDownloaded, result.Track)
	return result, nil
}

// Close forgets the session key on both sides and leaves the secure session
func (s *Session) Close() error {
	if s.sessionKey != nil {
		if err := s.md.SessionKeyForget(); err != nil {
			common.LogDebug(common.WarnSessionKeyForget, err)
		}
		for i := range s.sessionKey {
			s.sessionKey[i] = 0
		}
		s.sessionKey = nil
	}
	if err := s.md.LeaveSecureSession(); err != nil {
		return err
	}
	common.LogInfo(common.InfoSessionClosed, s.ID)
	return nil
}
