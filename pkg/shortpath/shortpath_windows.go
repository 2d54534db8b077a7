//go:build windows

package shortpath

import "golang.org/x/sys/windows"

func resolve(path string) string {
	long, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return ""
	}

	buf := make([]uint16, 512)
	n, err := windows.GetShortPathName(long, &buf[0], uint32(len(buf)))
	if err != nil || n == 0 {
		return ""
	}
	if int(n) > len(buf) {
		buf = make([]uint16, n)
		if n, err = windows.GetShortPathName(long, &buf[0], uint32(len(buf))); err != nil || n == 0 {
			return ""
		}
	}
	return windows.UTF16ToString(buf[:n])
}
