// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: BUSL-1.1

// Package ldap authenticates users against an LDAP directory configured by
// the ldap option group.
package ldap

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	stderrors "errors"
	"fmt"
	"net"
	"time"

	"github.com/cenkalti/backoff/v4"
	goldap "github.com/go-ldap/ldap/v3"
	capldap "github.com/hashicorp/cap/ldap"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-secure-stdlib/permitpool"
	"github.com/quotagate/quotagate/internal/errors"
)

// Authenticator verifies user credentials.
type Authenticator interface {
	Authenticate(ctx context.Context, login, password string) (*User, error)
}

// Directory is a client of the configured directory. Concurrent requests
// are bounded by the query and auth pools.
type Directory struct {
	conf      *Config
	queryPool *permitpool.Pool
	authPool  *permitpool.Pool
	logger    hclog.Logger
}

var _ Authenticator = (*Directory)(nil)

// NewDirectory returns a Directory for c. Supports the WithLogger option.
func NewDirectory(ctx context.Context, c *Config, opt ...Option) (*Directory, error) {
	const op = "ldap.NewDirectory"
	if c == nil {
		return nil, errors.New(ctx, errors.InvalidParameter, op, "missing config")
	}
	opts := getOpts(opt...)
	d := &Directory{
		conf:   c,
		logger: opts.withLogger,
	}
	if c.UsePool {
		d.queryPool = permitpool.New(c.PoolSize)
	}
	if c.UseAuthPool {
		d.authPool = permitpool.New(c.AuthPoolSize)
	}
	return d, nil
}

// Authenticate binds as login with password and returns the mapped user.
// Failed binds return AuthAttemptFailed; an unreachable directory returns
// DirectoryUnavailable once retries are exhausted.
func (d *Directory) Authenticate(ctx context.Context, login, password string) (*User, error) {
	const op = "ldap.(Directory).Authenticate"
	switch {
	case login == "":
		return nil, errors.New(ctx, errors.InvalidParameter, op, "missing login name")
	case password == "":
		return nil, errors.New(ctx, errors.AuthAttemptFailed, op, "empty passwords are not permitted")
	}
	release, err := acquire(ctx, d.authPool)
	if err != nil {
		return nil, errors.Wrap(ctx, err, op)
	}
	defer release()

	var result *capldap.AuthResult
	err = d.retry(ctx, func() error {
		client, err := capldap.NewClient(ctx, d.conf.clientConfig())
		if err != nil {
			return backoff.Permanent(errors.Wrap(ctx, err, op, errors.WithCode(errors.InvalidConfigValue)))
		}
		defer client.Close(ctx)
		result, err = client.Authenticate(ctx, login, password)
		switch {
		case err == nil:
			return nil
		case isNetworkError(err):
			return errors.Wrap(ctx, err, op, errors.WithCode(errors.DirectoryUnavailable))
		default:
			return backoff.Permanent(errors.Wrap(ctx, err, op, errors.WithCode(errors.AuthAttemptFailed)))
		}
	})
	if err != nil {
		d.logger.Debug("ldap authentication failed", "op", op, "login", login, "error", err)
		return nil, err
	}
	if result == nil || !result.Success {
		return nil, errors.New(ctx, errors.AuthAttemptFailed, op, "authentication failed")
	}
	for _, w := range result.Warnings {
		d.logger.Warn("ldap authentication warning", "op", op, "warning", w)
	}
	return d.conf.mapUser(login, result.UserDN, result.UserAttributes, result.Groups), nil
}

// Check verifies the directory is reachable and accepts the configured bind
// credentials.
func (d *Directory) Check(ctx context.Context) error {
	const op = "ldap.(Directory).Check"
	release, err := acquire(ctx, d.queryPool)
	if err != nil {
		return errors.Wrap(ctx, err, op)
	}
	defer release()

	return d.retry(ctx, func() error {
		conn, err := d.dial(ctx)
		if err != nil {
			return err
		}
		defer conn.Close()
		if d.conf.BindDN == "" {
			err = conn.UnauthenticatedBind("")
		} else {
			err = conn.Bind(d.conf.BindDN, d.conf.BindPassword)
		}
		if err != nil {
			return backoff.Permanent(errors.Wrap(ctx, err, op, errors.WithCode(errors.AuthAttemptFailed), errors.WithMsg("unable to bind with the configured user")))
		}
		return nil
	})
}

// dial connects to the first reachable url.
func (d *Directory) dial(ctx context.Context) (*goldap.Conn, error) {
	const op = "ldap.(Directory).dial"
	tlsConfig, err := d.tlsConfig(ctx)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	dialer := &net.Dialer{Timeout: d.conf.RequestTimeout}
	var lastErr error
	for _, u := range d.conf.URLs {
		conn, err := goldap.DialURL(u, goldap.DialWithDialer(dialer), goldap.DialWithTLSConfig(tlsConfig))
		if err != nil {
			lastErr = err
			continue
		}
		if d.conf.RequestTimeout > 0 {
			conn.SetTimeout(d.conf.RequestTimeout)
		}
		if d.conf.StartTLS {
			if err := conn.StartTLS(tlsConfig); err != nil {
				conn.Close()
				lastErr = err
				continue
			}
		}
		return conn, nil
	}
	if lastErr == nil {
		return nil, backoff.Permanent(errors.New(ctx, errors.InvalidConfigValue, op, "no ldap urls configured"))
	}
	return nil, errors.Wrap(ctx, lastErr, op, errors.WithCode(errors.DirectoryUnavailable), errors.WithMsg("unable to connect to any ldap url"))
}

func (d *Directory) tlsConfig(ctx context.Context) (*tls.Config, error) {
	const op = "ldap.(Directory).tlsConfig"
	cfg := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: d.conf.InsecureTLS,
	}
	if len(d.conf.Certificates) > 0 {
		pool := x509.NewCertPool()
		for _, c := range d.conf.Certificates {
			if !pool.AppendCertsFromPEM([]byte(c)) {
				return nil, errors.New(ctx, errors.InvalidConfigValue, op, "invalid ldap certificate")
			}
		}
		cfg.RootCAs = pool
	}
	return cfg, nil
}

// retry runs fn until it succeeds, returns a permanent error or the
// configured retries are exhausted.
func (d *Directory) retry(ctx context.Context, fn func() error) error {
	var b backoff.BackOff = backoff.NewConstantBackOff(d.conf.RetryDelay)
	b = backoff.WithMaxRetries(b, uint64(d.conf.RetryMax))
	b = backoff.WithContext(b, ctx)
	return backoff.RetryNotify(fn, b, func(err error, next time.Duration) {
		d.logger.Debug("retrying ldap request", "error", err, "backoff", next)
	})
}

func isNetworkError(err error) bool {
	var ldapErr *goldap.Error
	if stderrors.As(err, &ldapErr) {
		return ldapErr.ResultCode == goldap.ErrorNetwork
	}
	var netErr net.Error
	return stderrors.As(err, &netErr)
}

// acquire takes a permit from pool when pooling is enabled.
func acquire(ctx context.Context, pool *permitpool.Pool) (func(), error) {
	const op = "ldap.acquire"
	if pool == nil {
		return func() {}, nil
	}
	if err := pool.Acquire(ctx); err != nil {
		return nil, errors.Wrap(ctx, err, op, errors.WithCode(errors.PoolExhausted), errors.WithMsg(fmt.Sprintf("no ldap connection available: %v", err)))
	}
	return pool.Release, nil
}
