package ftp

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/user"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/CloudNativeWorks/etlctl/internal/operations/common"
	"github.com/CloudNativeWorks/etlctl/internal/operations/firewall"
	"github.com/CloudNativeWorks/etlctl/pkg/logger"
	"github.com/CloudNativeWorks/etlctl/pkg/template"
)

type runner interface {
	RunWithS(ctx context.Context, cmd string, args ...string) error
	RunWithInputS(ctx context.Context, stdin string, cmd string, args ...string) error
	RunInteractive(ctx context.Context, cmd string, args ...string) error
}

type packageInstaller interface {
	Install(ctx context.Context, pkgs ...string) error
}

type groupMembers interface {
	AddMember(ctx context.Context, name string) error
}

type serviceController interface {
	Restart(ctx context.Context, unit string) error
}

// Paths locates the daemon configuration files touched by the provisioner
type Paths struct {
	VsftpdConf string
	SshdConf   string
}

// Provisioner gives an FTP-only account access to the server files
type Provisioner struct {
	paths      Paths
	runner     runner
	pkgs       packageInstaller
	group      groupMembers
	controller serviceController
	userExists func(name string) bool
	logger     *logger.Logger
}

func NewProvisioner(paths Paths, r runner, pkgs packageInstaller, group groupMembers, controller serviceController, log *logger.Logger) *Provisioner {
	return &Provisioner{
		paths:      paths,
		runner:     r,
		pkgs:       pkgs,
		group:      group,
		controller: controller,
		userExists: func(name string) bool {
			_, err := user.Lookup(name)
			return err == nil
		},
		logger: log.WithModule("ftp"),
	}
}

// Configure installs vsftpd, creates username with home homeDir when
// missing, sets its password, adds it to the server group and denies it SSH
// logins. An empty password prompts on the terminal through passwd.
func (p *Provisioner) Configure(ctx context.Context, username, password, homeDir string) error {
	log := p.logger.WithField("user", username)

	if err := p.pkgs.Install(ctx, "vsftpd"); err != nil {
		return err
	}
	if err := p.writeVsftpdConf(); err != nil {
		return err
	}

	if p.userExists(username) {
		log.Debug("FTP user already exists")
	} else {
		log.Info("Creating FTP user")
		if err := p.runner.RunWithS(ctx, "useradd", "-m", "-d", homeDir, username); err != nil {
			return fmt.Errorf("failed to create user %s: %w", username, err)
		}
	}

	if password != "" {
		if err := p.runner.RunWithInputS(ctx, username+":"+password+"\n", "chpasswd"); err != nil {
			return fmt.Errorf("failed to set password for %s: %w", username, err)
		}
	} else if err := p.runner.RunInteractive(ctx, "passwd", username); err != nil {
		return fmt.Errorf("failed to set password for %s: %w", username, err)
	}

	if err := p.group.AddMember(ctx, username); err != nil {
		return err
	}

	changed, err := DenySSH(p.paths.SshdConf, username)
	if err != nil {
		return err
	}
	if changed {
		if err := p.restartSSH(ctx); err != nil {
			return err
		}
	}

	if err := p.controller.Restart(ctx, "vsftpd"); err != nil {
		return err
	}

	log.Info("FTP access configured")
	return nil
}

func (p *Provisioner) writeVsftpdConf() error {
	content := fmt.Sprintf(template.VsftpdTemplate, firewall.PassiveMin, firewall.PassiveMax)
	if err := os.WriteFile(p.paths.VsftpdConf, []byte(content), 0644); err != nil {
		return common.FSError("write", p.paths.VsftpdConf, err)
	}
	return nil
}

// restartSSH tries the Debian unit name first, then the upstream one
func (p *Provisioner) restartSSH(ctx context.Context) error {
	var result *multierror.Error
	for _, unit := range []string{"ssh", "sshd"} {
		err := p.controller.Restart(ctx, unit)
		if err == nil {
			return nil
		}
		result = multierror.Append(result, err)
	}
	return fmt.Errorf("failed to restart ssh daemon: %w", result.ErrorOrNil())
}

// DenySSH appends a DenyUsers line for username unless sshd_config already
// denies it. It reports whether the file changed.
func DenySSH(path, username string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return false, common.FSError("read", path, err)
	}

	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 || !strings.EqualFold(fields[0], "DenyUsers") {
			continue
		}
		for _, f := range fields[1:] {
			if f == username {
				return false, nil
			}
		}
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return false, common.FSError("open", path, err)
	}
	defer f.Close()

	line := "DenyUsers " + username + "\n"
	if len(data) > 0 && !strings.HasSuffix(string(data), "\n") {
		line = "\n" + line
	}
	if _, err := f.WriteString(line); err != nil {
		return false, common.FSError("write", path, err)
	}
	return true, f.Close()
}
