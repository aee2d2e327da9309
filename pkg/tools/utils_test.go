package tools

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vishvananda/netlink"
)

func TestHumanSize(t *testing.T) {
	assert.Equal(t, "512 B", HumanSize(512))
	assert.Equal(t, "1.0 KiB", HumanSize(1024))
	assert.Equal(t, "1.5 MiB", HumanSize(1536*1024))
	assert.Equal(t, "2.0 GiB", HumanSize(2<<30))
}

func TestIsDefaultRoute(t *testing.T) {
	_, defaultNet, _ := net.ParseCIDR("0.0.0.0/0")
	_, lan, _ := net.ParseCIDR("192.168.1.0/24")

	assert.True(t, isDefaultRoute(netlink.Route{}))
	assert.True(t, isDefaultRoute(netlink.Route{Dst: defaultNet}))
	assert.False(t, isDefaultRoute(netlink.Route{Dst: lan}))
}

func TestFirstGlobal(t *testing.T) {
	loop := &net.IPNet{IP: net.ParseIP("127.0.0.1"), Mask: net.CIDRMask(8, 32)}
	pub := &net.IPNet{IP: net.ParseIP("203.0.113.7"), Mask: net.CIDRMask(24, 32)}

	ip := firstGlobal([]netlink.Addr{{IPNet: loop}, {IPNet: pub}})
	assert.Equal(t, "203.0.113.7", ip.String())
	assert.Nil(t, firstGlobal([]netlink.Addr{{IPNet: loop}}))
}

func TestConnectAddress(t *testing.T) {
	assert.Equal(t, "203.0.113.7:27960", ConnectAddress(net.ParseIP("203.0.113.7"), 27960))
	assert.Equal(t, "<server-ip>:27961", ConnectAddress(nil, 27961))
}
