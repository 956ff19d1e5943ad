package service

import (
	"net/url"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"

	"github.com/yepcord/server-sub002/internal/model"
)

// Embed limits.
const (
	maxEmbeds           = 10
	maxEmbedTitle       = 256
	maxEmbedDescription = 4096
	maxEmbedFields      = 25
	maxEmbedFieldName   = 256
	maxEmbedFieldValue  = 1024
	maxEmbedFooter      = 2048
	maxEmbedAuthor      = 256
	maxEmbedColor       = 0xFFFFFF
)

// validateEmbeds reports every invalid path of embeds into fe.
func validateEmbeds(fe *model.FormErrors, embeds []*discordgo.MessageEmbed) {
	if len(embeds) > maxEmbeds {
		fe.Add("embeds", model.CodeBaseTypeMaxLength, "Must be 10 or fewer in length.")
		return
	}
	for i, e := range embeds {
		path := "embeds." + strconv.Itoa(i)
		if e == nil {
			fe.Add(path, model.CodeBaseTypeRequired, "This field is required")
			continue
		}
		validateEmbed(fe, path, e)
	}
}

func validateEmbed(fe *model.FormErrors, path string, e *discordgo.MessageEmbed) {
	maxLen(fe, path+".title", e.Title, maxEmbedTitle)
	maxLen(fe, path+".description", e.Description, maxEmbedDescription)
	checkURL(fe, path+".url", e.URL)

	if e.Timestamp != "" {
		if _, err := time.Parse(time.RFC3339, e.Timestamp); err != nil {
			fe.Add(path+".timestamp", model.CodeDateTimeTypeParse, "Could not parse "+e.Timestamp+". Should be ISO8601.")
		}
	}
	if e.Color > maxEmbedColor {
		fe.Add(path+".color", model.CodeNumberTypeMax, "int value should be less than or equal to 16777215.")
	}

	if e.Footer != nil {
		if e.Footer.Text == "" {
			fe.Add(path+".footer.text", model.CodeBaseTypeRequired, "This field is required")
		}
		maxLen(fe, path+".footer.text", e.Footer.Text, maxEmbedFooter)
		checkURL(fe, path+".footer.icon_url", e.Footer.IconURL)
	}
	if e.Author != nil {
		if e.Author.Name == "" {
			fe.Add(path+".author.name", model.CodeBaseTypeRequired, "This field is required")
		}
		maxLen(fe, path+".author.name", e.Author.Name, maxEmbedAuthor)
		checkURL(fe, path+".author.url", e.Author.URL)
		checkURL(fe, path+".author.icon_url", e.Author.IconURL)
	}
	if e.Image != nil {
		requiredURL(fe, path+".image.url", e.Image.URL)
	}
	if e.Thumbnail != nil {
		requiredURL(fe, path+".thumbnail.url", e.Thumbnail.URL)
	}

	if len(e.Fields) > maxEmbedFields {
		fe.Add(path+".fields", model.CodeBaseTypeMaxLength, "Must be 25 or fewer in length.")
		return
	}
	for i, f := range e.Fields {
		fpath := path + ".fields." + strconv.Itoa(i)
		if f == nil {
			fe.Add(fpath, model.CodeBaseTypeRequired, "This field is required")
			continue
		}
		if f.Name == "" {
			fe.Add(fpath+".name", model.CodeBaseTypeRequired, "This field is required")
		}
		if f.Value == "" {
			fe.Add(fpath+".value", model.CodeBaseTypeRequired, "This field is required")
		}
		maxLen(fe, fpath+".name", f.Name, maxEmbedFieldName)
		maxLen(fe, fpath+".value", f.Value, maxEmbedFieldValue)
	}
}

func maxLen(fe *model.FormErrors, path, v string, limit int) {
	if utf8.RuneCountInString(v) > limit {
		fe.Add(path, model.CodeBaseTypeMaxLength, "Must be "+strconv.Itoa(limit)+" or fewer in length.")
	}
}

func requiredURL(fe *model.FormErrors, path, v string) {
	if v == "" {
		fe.Add(path, model.CodeBaseTypeRequired, "This field is required")
		return
	}
	checkURL(fe, path, v)
}

func checkURL(fe *model.FormErrors, path, v string) {
	if v == "" {
		return
	}
	u, err := url.Parse(v)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		fe.Add(path, model.CodeURLTypeInvalidScheme, "Scheme \""+schemeOf(u)+"\" is not supported. Scheme must be one of ('http', 'https').")
	}
}

func schemeOf(u *url.URL) string {
	if u == nil {
		return ""
	}
	return u.Scheme
}
