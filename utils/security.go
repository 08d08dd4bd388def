// campusvoice/utils/security.go
package utils

import (
	"encoding/hex"
	"net"
	"net/http"
	"strings"

	"golang.org/x/crypto/blake2b"
)

var (
	// DeviceSalt keys HashDevice. It is generated at startup and never persisted.
	DeviceSalt []byte
)

// ClientIP returns the caller's address. Forwarding headers are only read
// when trustProxy is set, and then the proxy-appended (rightmost)
// X-Forwarded-For entry is used. Otherwise the socket peer is returned.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if cf := strings.TrimSpace(r.Header.Get("CF-Connecting-IP")); cf != "" {
			return cf
		}
		if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
			return ip
		}
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			hops := strings.Split(xff, ",")
			return strings.TrimSpace(hops[len(hops)-1])
		}
	}
	return peerHost(r.RemoteAddr)
}

func peerHost(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}

// IsLANRequest reports whether the caller is on a private or loopback address.
func IsLANRequest(r *http.Request, trustProxy bool) bool {
	ip := net.ParseIP(ClientIP(r, trustProxy))
	return ip != nil && (ip.IsPrivate() || ip.IsLoopback())
}

// HashDevice returns a short keyed BLAKE2b digest of a device id, safe to put in logs.
func HashDevice(deviceID string) string {
	if deviceID == "" {
		return ""
	}
	key := DeviceSalt
	if len(key) > blake2b.Size {
		key = key[:blake2b.Size]
	}
	h, err := blake2b.New256(key)
	if err != nil {
		sum := blake2b.Sum256([]byte(deviceID))
		return hex.EncodeToString(sum[:8])
	}
	h.Write([]byte(deviceID))
	return hex.EncodeToString(h.Sum(nil)[:8])
}
