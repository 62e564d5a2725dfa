// SPDX-License-Identifier: MPL-2.0

package fetch

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"

	"github.com/recipekit/recipekit/pkg/recipe"
)

// defaultAuth uses SSH keys for SSH URLs and token environment variables for
// HTTPS URLs. Public HTTPS repositories need neither.
func defaultAuth(url recipe.GitURL) transport.AuthMethod {
	s := string(url)
	switch {
	case strings.HasPrefix(s, "git@"), strings.HasPrefix(s, "ssh://"):
		return sshAuth()
	case strings.HasPrefix(s, "https://"):
		return tokenAuth(s)
	default:
		return nil
	}
}

func sshAuth() transport.AuthMethod {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	for _, name := range []string{"id_ed25519", "id_ecdsa", "id_rsa"} {
		keyPath := filepath.Join(home, ".ssh", name)
		if _, err := os.Stat(keyPath); err != nil {
			continue
		}
		if auth, err := ssh.NewPublicKeysFromFile("git", keyPath, ""); err == nil {
			return auth
		}
	}
	return nil
}

func tokenAuth(url string) transport.AuthMethod {
	if strings.HasPrefix(url, "https://github.com/") {
		if token := os.Getenv("GITHUB_TOKEN"); token != "" {
			return &http.BasicAuth{Username: "x-access-token", Password: token}
		}
	}
	if token := os.Getenv("GITLAB_TOKEN"); token != "" && strings.Contains(url, "gitlab") {
		return &http.BasicAuth{Username: "gitlab-ci-token", Password: token}
	}
	if token := os.Getenv("GIT_TOKEN"); token != "" {
		return &http.BasicAuth{Username: "git", Password: token}
	}
	return nil
}
