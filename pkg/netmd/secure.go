package netmd

import (
	"context"
	"encoding/binary"
	"time"

	"github.com/hansbonini/mdtools/pkg/common"
	"github.com/hansbonini/mdtools/pkg/query"
)

// Sizes fixed by the secure session protocol
const (
	EKBKeySize       = 16
	EKBSignatureSize = 24
	NonceSize        = 8
	ContentIDSize    = 20
	KEKSize          = 8
	SessionKeySize   = 8

	// PacketHeaderSize is the header prepended to the first bulk packet
	PacketHeaderSize = 24
)

// sharpSettle is the pause slow devices need around the track transfer
const sharpSettle = 200 * time.Millisecond

// DownloadResult identifies a track created by SendTrack
type DownloadResult struct {
	Track int
	UUID  []byte
	CCID  []byte
}

// TransferProgress reports bytes written during SendTrack
type TransferProgress func(written, total int)

// EnterSecureSession switches the device into secure session mode
func (md *Interface) EnterSecureSession() error {
	_, err := md.transact("1800 080046 f0030103 80 00", "1800 080046 f0030103 80 ff")
	return err
}

// LeaveSecureSession leaves secure session mode
func (md *Interface) LeaveSecureSession() error {
	_, err := md.transact("1800 080046 f0030103 81 00", "1800 080046 f0030103 81 ff")
	return err
}

// LeafID returns the device leaf ID
func (md *Interface) LeafID() ([]byte, error) {
	res, err := md.transact("1800 080046 f0030103 11 00 %*", "1800 080046 f0030103 11 ff")
	if err != nil {
		return nil, err
	}
	return res.Bytes(0), nil
}

// SendKeyData sends the key chain and signature of an EKB
func (md *Interface) SendKeyData(ekbID uint32, chain [][]byte, depth int, signature []byte) error {
	for i, key := range chain {
		if len(key) != EKBKeySize {
			return validationError("key %d of the chain has %d bytes, need %d", i, len(key), EKBKeySize)
		}
	}
	if depth < 1 || depth > 63 {
		return validationError("chain depth %d out of range 1..63", depth)
	}
	if len(signature) != EKBSignatureSize {
		return validationError("EKB signature has %d bytes, need %d", len(signature), EKBSignatureSize)
	}

	dataBytes := 16 + 16*len(chain) + 24
	var keys []byte
	for _, key := range chain {
		keys = append(keys, key...)
	}
	_, err := md.transact(
		"1800 080046 f0030103 12 01 %?%? %?%?%?%?",
		"1800 080046 f0030103 12 ff %w 0000 %w %d %d %d 00000000 %* %*",
		dataBytes, dataBytes, len(chain), depth, ekbID, keys, signature)
	return err
}

// SessionKeyExchange sends the host nonce and returns the device nonce. The
// status byte of the reply varies between vendors and is not checked.
func (md *Interface) SessionKeyExchange(hostNonce []byte) ([]byte, error) {
	if len(hostNonce) != NonceSize {
		return nil, validationError("host nonce has %d bytes, need %d", len(hostNonce), NonceSize)
	}
	res, err := md.transact("1800 080046 f0030103 20 %? 000000 %#", "1800 080046 f0030103 20 ff 000000 %*", hostNonce)
	if err != nil {
		return nil, err
	}
	return res.Bytes(0), nil
}

// SessionKeyForget asks the device to discard the session key
func (md *Interface) SessionKeyForget() error {
	_, err := md.transact("1800 080046 f0030103 21 00 000000", "1800 080046 f0030103 21 ff 000000")
	return err
}

func checkSessionKey(key []byte) error {
	if len(key) != SessionKeySize {
		return validationError("session key has %d bytes, need %d", len(key), SessionKeySize)
	}
	return nil
}

// SetupDownload sends the content ID and KEK wrapped under the session key
func (md *Interface) SetupDownload(contentID, kek, sessionKey []byte) error {
	if len(contentID) != ContentIDSize {
		return validationError("content ID has %d bytes, need %d", len(contentID), ContentIDSize)
	}
	if len(kek) != KEKSize {
		return validationError("KEK has %d bytes, need %d", len(kek), KEKSize)
	}
	if err := checkSessionKey(sessionKey); err != nil {
		return err
	}

	message := append([]byte{1, 1, 1, 1}, contentID...)
	message = append(message, kek...)
	wrapped, err := desCBCEncrypt(sessionKey, zeroIV, message)
	if err != nil {
		return err
	}
	_, err = md.transact("1800 080046 f0030103 22 00 0000", "1800 080046 f0030103 22 ff 0000 %*", wrapped)
	return err
}

// CommitTrack finalizes a downloaded track
func (md *Interface) CommitTrack(track int, sessionKey []byte) error {
	if err := checkSessionKey(sessionKey); err != nil {
		return err
	}
	auth, err := desECB(sessionKey, zeroIV, false)
	if err != nil {
		return err
	}
	_, err = md.transact("1800 080046 f0030103 48 00 00 1001 %?%?", "1800 080046 f0030103 48 ff 00 1001 %w %*", track, auth)
	return err
}

// SendTrack announces a track of frames frames and packetSize payload bytes,
// then writes the packets received on packets to the bulk endpoint. The
// first packet carries the transfer header.
func (md *Interface) SendTrack(ctx context.Context, wire Wireformat, format DiscFormat, frames, packetSize int,
	packets <-chan Packet, sessionKey []byte, progress TransferProgress) (*DownloadResult, error) {
	if err := checkSessionKey(sessionKey); err != nil {
		return nil, err
	}
	md.link.pause(sharpSettle)

	totalBytes := packetSize + PacketHeaderSize
	q, err := query.Format("1800 080046 f0030103 28 ff 000100 1001 ffff 00 %b %b %d %d", wire, format, frames, totalBytes)
	if err != nil {
		return nil, err
	}
	reply, err := md.SendQuery(q, false, true)
	if err != nil {
		return nil, err
	}
	if _, err := query.Scan(reply, "1800 080046 f0030103 28 00 000100 1001 %?%? 00 %*"); err != nil {
		return nil, err
	}
	md.link.pause(sharpSettle)

	written, count := 0, 0
	for done := false; !done; {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case pkt, ok := <-packets:
			if !ok {
				done = true
				break
			}
			if pkt.Err != nil {
				return nil, pkt.Err
			}
			if progress != nil {
				progress(written, totalBytes)
			}
			payload := pkt.Data
			if count == 0 {
				header := make([]byte, 8, PacketHeaderSize+len(pkt.Data))
				binary.BigEndian.PutUint32(header[4:], uint32(packetSize))
				header = append(header, pkt.Key...)
				header = append(header, pkt.IV...)
				payload = append(header, pkt.Data...)
			}
			if err := md.link.WriteBulk(payload); err != nil {
				return nil, err
			}
			count++
			written += len(pkt.Data)
			common.LogDebug(common.DebugPacketWritten, count, written, totalBytes)
		}
	}
	if progress != nil {
		progress(written, totalBytes)
	}

	reply, err = md.ReadReply(false)
	if err != nil {
		return nil, err
	}
	if _, err := md.link.ReplyLength(); err != nil {
		return nil, err
	}
	res, err := query.Scan(reply, "1800 080046 f0030103 28 00 000100 1001 %w 00 %?%? %?%?%?%? %?%?%?%? %*")
	if err != nil {
		return nil, err
	}
	plain, err := desCBCDecrypt(sessionKey, zeroIV, res.Bytes(1))
	if err != nil {
		return nil, err
	}
	plain = pkcs7Unpad(plain)

	result := &DownloadResult{Track: res.Int(0)}
	result.UUID = append([]byte(nil), plain[:min(8, len(plain))]...)
	if len(plain) > 12 {
		result.CCID = append([]byte(nil), plain[12:min(32, len(plain))]...)
	}
	return result, nil
}

// TrackUUID returns the UUID of track
func (md *Interface) TrackUUID(track int) ([]byte, error) {
	res, err := md.transact("1800 080046 f0030103 23 00 1001 %?%? %*", "1800 080046 f0030103 23 ff 1001 %w", track)
	if err != nil {
		return nil, err
	}
	return res.Bytes(0), nil
}

// Terminate ends the secure session on the device side
func (md *Interface) Terminate() error {
	_, err := md.SendQuery(query.MustFormat("1800 080046 f0030103 2a ff00"), false, false)
	return err
}
