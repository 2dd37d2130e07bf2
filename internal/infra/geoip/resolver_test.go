package geoip

import (
	"errors"
	"net"
	"testing"

	"github.com/oschwald/geoip2-golang"
)

type fakeReader struct {
	calls int
	code  string
}

func (f *fakeReader) Country(ip net.IP) (*geoip2.Country, error) {
	f.calls++
	rec := &geoip2.Country{}
	rec.Country.IsoCode = f.code
	return rec, nil
}

func (f *fakeReader) Close() error { return nil }

func TestCountryCodeCachesLookups(t *testing.T) {
	reader := &fakeReader{code: "ID"}
	r := newResolver(reader)
	for i := 0; i < 3; i++ {
		code, err := r.CountryCode("203.0.113.7")
		if err != nil {
			t.Fatalf("CountryCode() error: %v", err)
		}
		if code != "ID" {
			t.Fatalf("CountryCode() = %q, want ID", code)
		}
	}
	if reader.calls != 1 {
		t.Fatalf("reader calls = %d, want 1", reader.calls)
	}
}

func TestCountryCodeInvalidIP(t *testing.T) {
	r := newResolver(&fakeReader{})
	if _, err := r.CountryCode("not-an-ip"); err == nil {
		t.Fatalf("expected error for invalid ip")
	}
}

func TestNilResolver(t *testing.T) {
	var r *Resolver
	if _, err := r.CountryCode("203.0.113.7"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("CountryCode() error = %v, want ErrUnavailable", err)
	}
	if r.Lookup() != nil {
		t.Fatalf("Lookup() on nil resolver should be nil")
	}
	resolver, err := NewResolver("  ")
	if err != nil || resolver != nil {
		t.Fatalf("NewResolver(\"\") = %v, %v; want nil, nil", resolver, err)
	}
}
