// Package cdn builds links to files served by the CDN.
package cdn

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// AllowedSizes are the image sizes the CDN renders, ascending.
var AllowedSizes = []int{
	16, 20, 22, 24, 28, 32, 40, 44, 48, 56, 60, 64, 80, 96, 100, 128, 160, 240, 256, 300, 320,
	480, 512, 600, 640, 1024, 1280, 1536, 2048, 3072, 4096,
}

// Image formats.
const (
	FormatWebP = "webp"
	FormatPNG  = "png"
	FormatJPG  = "jpg"
	FormatGIF  = "gif"
)

// SnapSize returns the allowed size closest to size. Ties go to the larger one.
func SnapSize(size int) int {
	i := sort.SearchInts(AllowedSizes, size)
	switch {
	case i == 0:
		return AllowedSizes[0]
	case i == len(AllowedSizes):
		return AllowedSizes[len(AllowedSizes)-1]
	case AllowedSizes[i] == size:
		return size
	}
	lo, hi := AllowedSizes[i-1], AllowedSizes[i]
	if size-lo < hi-size {
		return lo
	}
	return hi
}

// ValidFormat reports whether format is an image format the CDN serves.
func ValidFormat(format string) bool {
	switch format {
	case FormatWebP, FormatPNG, FormatJPG, FormatGIF:
		return true
	}
	return false
}

// URLs builds absolute CDN links for one host.
type URLs struct {
	base string
}

// New creates URLs for host, which may carry a scheme. Hosts without one use https.
func New(host string) URLs {
	if !strings.Contains(host, "://") {
		host = "https://" + host
	}
	return URLs{base: strings.TrimRight(host, "/")}
}

func (u URLs) image(path, hash, format string, size int) string {
	if !ValidFormat(format) {
		format = FormatPNG
	}
	link := fmt.Sprintf("%s/%s/%s.%s", u.base, path, hash, format)
	if size > 0 {
		link += fmt.Sprintf("?size=%d", SnapSize(size))
	}
	return link
}

// Avatar links a user avatar.
func (u URLs) Avatar(userID int64, hash, format string, size int) string {
	return u.image(fmt.Sprintf("avatars/%d", userID), hash, format, size)
}

// Banner links a user or guild banner.
func (u URLs) Banner(id int64, hash, format string, size int) string {
	return u.image(fmt.Sprintf("banners/%d", id), hash, format, size)
}

// Splash links a guild invite splash.
func (u URLs) Splash(guildID int64, hash, format string, size int) string {
	return u.image(fmt.Sprintf("splashes/%d", guildID), hash, format, size)
}

// GuildIcon links a guild icon.
func (u URLs) GuildIcon(guildID int64, hash, format string, size int) string {
	return u.image(fmt.Sprintf("icons/%d", guildID), hash, format, size)
}

// ChannelIcon links a group DM icon.
func (u URLs) ChannelIcon(channelID int64, hash, format string, size int) string {
	return u.image(fmt.Sprintf("channel-icons/%d", channelID), hash, format, size)
}

// RoleIcon links a role icon.
func (u URLs) RoleIcon(roleID int64, hash, format string, size int) string {
	return u.image(fmt.Sprintf("role-icons/%d", roleID), hash, format, size)
}

// Emoji links a custom emoji.
func (u URLs) Emoji(emojiID int64, format string, size int) string {
	return u.image("emojis", fmt.Sprint(emojiID), format, size)
}

// Sticker links a sticker.
func (u URLs) Sticker(stickerID int64, format string, size int) string {
	return u.image("stickers", fmt.Sprint(stickerID), format, size)
}

// GuildAvatar links a per-guild member avatar.
func (u URLs) GuildAvatar(guildID, memberID int64, hash, format string, size int) string {
	return u.image(fmt.Sprintf("guilds/%d/users/%d/avatars", guildID, memberID), hash, format, size)
}

// Attachment links a message attachment. The file name is path-escaped.
func (u URLs) Attachment(channelID, attachmentID int64, name string) string {
	return fmt.Sprintf("%s/attachments/%d/%d/%s", u.base, channelID, attachmentID, url.PathEscape(name))
}
