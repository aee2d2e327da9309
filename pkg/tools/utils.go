package tools

import (
	"errors"
	"fmt"
	"net"

	"github.com/vishvananda/netlink"
)

// HumanSize formats a byte count using binary units
func HumanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// PrimaryIPv4 returns the source address of the IPv4 default route, which is
// what players connect to on a single homed host
func PrimaryIPv4() (net.IP, error) {
	routes, err := netlink.RouteList(nil, netlink.FAMILY_V4)
	if err != nil {
		return nil, fmt.Errorf("failed to list routes: %w", err)
	}

	for _, route := range routes {
		if !isDefaultRoute(route) {
			continue
		}
		if route.Src != nil && route.Src.To4() != nil {
			return route.Src, nil
		}
		link, err := netlink.LinkByIndex(route.LinkIndex)
		if err != nil {
			continue
		}
		addrs, err := netlink.AddrList(link, netlink.FAMILY_V4)
		if err != nil {
			continue
		}
		if ip := firstGlobal(addrs); ip != nil {
			return ip, nil
		}
	}
	return nil, errors.New("no IPv4 default route")
}

func isDefaultRoute(route netlink.Route) bool {
	if route.Dst == nil {
		return true
	}
	ones, _ := route.Dst.Mask.Size()
	return ones == 0 && route.Dst.IP.IsUnspecified()
}

func firstGlobal(addrs []netlink.Addr) net.IP {
	for _, addr := range addrs {
		if addr.IPNet == nil {
			continue
		}
		if ip := addr.IP.To4(); ip != nil && ip.IsGlobalUnicast() {
			return ip
		}
	}
	return nil
}

// ConnectAddress renders the address players type into the console
func ConnectAddress(ip net.IP, port uint16) string {
	if ip == nil {
		return fmt.Sprintf("<server-ip>:%d", port)
	}
	return net.JoinHostPort(ip.String(), fmt.Sprint(port))
}
