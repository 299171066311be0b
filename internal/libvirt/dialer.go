package libvirt

import (
	"net"

	"github.com/digitalocean/go-libvirt/socket"
	"github.com/digitalocean/go-libvirt/socket/dialers"
	"golang.org/x/crypto/ssh"
)

const DefaultSocket = "/var/run/libvirt/libvirt-sock"

// TunnelDialer reaches the libvirt socket of the target through an SSH
// connection, like the qemu+ssh transport.
type TunnelDialer struct {
	client *ssh.Client
	socket string
}

func (d *TunnelDialer) Dial() (net.Conn, error) {
	return d.client.Dial("unix", d.socket)
}

func NewTunnelDialer(client *ssh.Client, socket string) *TunnelDialer {
	return &TunnelDialer{client: client, socket: socket}
}

func NewLocalDialer(path string) socket.Dialer {
	return dialers.NewLocal(dialers.WithSocket(path))
}
