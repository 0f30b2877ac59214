package service

import (
	"encoding/base32"
	"encoding/binary"

	"parsfix/internal/utils"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/hotp"
)

// HOTPCodeGenerator derives one-time activation codes with the HOTP
// truncation over a throwaway random secret and counter.
type HOTPCodeGenerator struct {
	Digits    otp.Digits
	Algorithm otp.Algorithm
}

func NewHOTPCodeGenerator() *HOTPCodeGenerator {
	return &HOTPCodeGenerator{
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	}
}

func (g *HOTPCodeGenerator) Generate() (string, error) {
	secret, err := utils.RandomBytes(20)
	if err != nil {
		return "", err
	}
	counter, err := utils.RandomBytes(8)
	if err != nil {
		return "", err
	}
	return hotp.GenerateCodeCustom(
		base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(secret),
		binary.BigEndian.Uint64(counter),
		hotp.ValidateOpts{
			Digits:    g.digits(),
			Algorithm: g.algorithm(),
		},
	)
}

func (g *HOTPCodeGenerator) digits() otp.Digits {
	if g.Digits == 0 {
		return otp.DigitsSix
	}
	return g.Digits
}

func (g *HOTPCodeGenerator) algorithm() otp.Algorithm {
	if g.Algorithm == 0 {
		return otp.AlgorithmSHA1
	}
	return g.Algorithm
}
