// Package remote moves tree descriptions to and from an asset host over
// SFTP.
package remote

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path"
	"sort"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"

	"example.com/behavior-sim/internal/config"
	"example.com/behavior-sim/internal/library"
)

type HostSpec struct {
	Addr       string
	User       string
	PrivateKey []byte
	Password   string
}

// HostFromConfig builds a HostSpec, reading the private key file if one is
// configured.
func HostFromConfig(rc config.RemoteConfig) (HostSpec, error) {
	h := HostSpec{Addr: rc.Addr, User: rc.User, Password: rc.Password}
	if rc.KeyPath != "" {
		key, err := os.ReadFile(rc.KeyPath)
		if err != nil {
			return h, fmt.Errorf("read private key: %w", err)
		}
		h.PrivateKey = key
	}
	return h, nil
}

func (h HostSpec) clientConfig() (*ssh.ClientConfig, error) {
	if h.Addr == "" || h.User == "" {
		return nil, errors.New("host addr and user required")
	}
	var authMethods []ssh.AuthMethod
	if len(h.PrivateKey) > 0 {
		signer, err := ssh.ParsePrivateKey(bytes.TrimSpace(h.PrivateKey))
		if err != nil {
			return nil, fmt.Errorf("parse private key: %w", err)
		}
		authMethods = append(authMethods, ssh.PublicKeys(signer))
	}
	if h.Password != "" {
		authMethods = append(authMethods, ssh.Password(h.Password))
	}
	if len(authMethods) == 0 {
		return nil, errors.New("no auth methods provided")
	}
	return &ssh.ClientConfig{
		User:            h.User,
		Auth:            authMethods,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         10 * time.Second,
	}, nil
}

// withSFTP dials h and runs fn against an SFTP session.
func withSFTP(h HostSpec, fn func(*sftp.Client) error) error {
	cfg, err := h.clientConfig()
	if err != nil {
		return err
	}
	client, err := ssh.Dial("tcp", h.Addr, cfg)
	if err != nil {
		return fmt.Errorf("ssh dial %s: %w", h.Addr, err)
	}
	defer client.Close()

	sftpClient, err := sftp.NewClient(client)
	if err != nil {
		return fmt.Errorf("sftp client: %w", err)
	}
	defer sftpClient.Close()
	return fn(sftpClient)
}

// Fetch downloads every tree description in dir on the remote host.
func Fetch(h HostSpec, dir string) (map[string][]byte, error) {
	var trees map[string][]byte
	err := withSFTP(h, func(c *sftp.Client) error {
		var err error
		trees, err = FetchDir(c, dir)
		return err
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[remote] fetched %d trees from %s:%s", len(trees), h.Addr, dir)
	return trees, nil
}

// Push uploads trees to dir on the remote host as JSON files.
func Push(h HostSpec, dir string, trees map[string][]byte) error {
	err := withSFTP(h, func(c *sftp.Client) error {
		return PushDir(c, dir, trees)
	})
	if err != nil {
		return err
	}
	log.Printf("[remote] pushed %d trees to %s:%s", len(trees), h.Addr, dir)
	return nil
}

// FetchDir reads tree description files from dir, keyed by tree name.
func FetchDir(c *sftp.Client, dir string) (map[string][]byte, error) {
	entries, err := c.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read remote dir %s: %w", dir, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	trees := make(map[string][]byte)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name, ok := library.TreeName(e.Name())
		if !ok {
			continue
		}
		if _, dup := trees[name]; dup {
			continue
		}
		data, err := readRemoteFile(c, path.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		trees[name] = data
	}
	return trees, nil
}

// PushDir writes each tree to dir/<name>.json, creating dir if needed.
func PushDir(c *sftp.Client, dir string, trees map[string][]byte) error {
	if err := c.MkdirAll(dir); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	names := make([]string, 0, len(trees))
	for name := range trees {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := writeRemoteFile(c, path.Join(dir, name+".json"), trees[name], 0o644); err != nil {
			return err
		}
	}
	return nil
}

func readRemoteFile(c *sftp.Client, p string) ([]byte, error) {
	f, err := c.Open(p)
	if err != nil {
		return nil, fmt.Errorf("open remote file %s: %w", p, err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read remote file %s: %w", p, err)
	}
	return data, nil
}

func writeRemoteFile(c *sftp.Client, p string, data []byte, perm os.FileMode) error {
	f, err := c.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_TRUNC)
	if err != nil {
		return fmt.Errorf("open remote file %s: %w", p, err)
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("write remote file %s: %w", p, err)
	}
	if err := c.Chmod(p, perm); err != nil {
		return fmt.Errorf("chmod %s: %w", p, err)
	}
	return nil
}
