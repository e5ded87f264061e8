package netmd

import (
	"bytes"
	"crypto/cipher"
	"crypto/des"
	"fmt"
)

var zeroIV = make([]byte, des.BlockSize)

// desCBCEncrypt encrypts data, whose length must be a multiple of the block
// size, with DES in CBC mode.
func desCBCEncrypt(key, iv, data []byte) ([]byte, error) {
	block, err := des.NewCipher(key)
	if err != nil {
		return nil, err
	}
	if len(data)%des.BlockSize != 0 {
		return nil, fmt.Errorf("DES-CBC input of %d bytes is not block aligned", len(data))
	}
	out := make([]byte, len(data))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, data)
	return out, nil
}

func desCBCDecrypt(key, iv, data []byte) ([]byte, error) {
	block, err := des.NewCipher(key)
	if err != nil {
		return nil, err
	}
	if len(data)%des.BlockSize != 0 {
		return nil, fmt.Errorf("DES-CBC input of %d bytes is not block aligned", len(data))
	}
	out := make([]byte, len(data))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, data)
	return out, nil
}

// desECB applies a single DES block operation to an 8 byte block
func desECB(key, data []byte, decrypt bool) ([]byte, error) {
	block, err := des.NewCipher(key)
	if err != nil {
		return nil, err
	}
	if len(data) != des.BlockSize {
		return nil, fmt.Errorf("DES-ECB input must be %d bytes, got %d", des.BlockSize, len(data))
	}
	out := make([]byte, des.BlockSize)
	if decrypt {
		block.Decrypt(out, data)
	} else {
		block.Encrypt(out, data)
	}
	return out, nil
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	return append(append(make([]byte, 0, len(data)+n), data...), bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(data []byte) []byte {
	if len(data) == 0 {
		return data
	}
	n := int(data[len(data)-1])
	if n == 0 || n > des.BlockSize || n > len(data) {
		return data
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return data
		}
	}
	return data[:len(data)-n]
}

// RetailMAC derives the 8 byte session key from a 16 byte root key and the
// concatenated host and device nonces. All but the last block of value are
// DES-CBC encrypted under the first half of the key; the last cipher block
// becomes the IV of a two-key 3DES-CBC pass over the last block.
func RetailMAC(key, value []byte) ([]byte, error) {
	if len(key) != 16 {
		return nil, validationError("retail MAC key must be 16 bytes, got %d", len(key))
	}
	if len(value) < 2*des.BlockSize || len(value)%des.BlockSize != 0 {
		return nil, validationError("retail MAC input must be a multiple of 8 bytes and at least 16, got %d", len(value))
	}
	head, tail := value[:len(value)-des.BlockSize], value[len(value)-des.BlockSize:]

	step1, err := desCBCEncrypt(key[:8], zeroIV, head)
	if err != nil {
		return nil, err
	}
	iv2 := step1[len(step1)-des.BlockSize:]

	tripleKey := append(append([]byte{}, key...), key[:8]...)
	block, err := des.NewTripleDESCipher(tripleKey)
	if err != nil {
		return nil, err
	}
	out := make([]byte, des.BlockSize)
	cipher.NewCBCEncrypter(block, iv2).CryptBlocks(out, tail)
	return out, nil
}
