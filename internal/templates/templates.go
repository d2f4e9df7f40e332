// Package templates holds the Indonesian WhatsApp message bodies.
package templates

import (
	"strings"
	"time"

	"posnotif/internal/util"
)

const fallbackUserName = "Pelanggan"

const (
	topUpRequestedAdmin = "🔔 *Permintaan Top-up Baru*\n\nToko: *{store}*\nJumlah: *{amount} token*\n\nSilakan periksa bukti transfer dan proses permintaan ini di dasbor admin."

	topUpApprovedCustomer = "✅ *Top-up Disetujui!*\n\nHalo {user},\nPermintaan top-up Anda untuk toko *{store}* telah disetujui.\n\nSejumlah *{amount} token* telah ditambahkan ke saldo Anda.\n\nTerima kasih!"
	topUpApprovedAdmin    = "✅ *Top-up Disetujui*\n\nPermintaan dari: *{store}*\nJumlah: *{amount} token*\n\nStatus berhasil diperbarui dan saldo toko telah ditambahkan."

	topUpRejectedCustomer = "❌ *Top-up Ditolak*\n\nHalo {user},\nMohon maaf, permintaan top-up Anda untuk toko *{store}* sejumlah {amount} token telah ditolak.\n\nSilakan periksa bukti transfer Anda dan coba lagi, atau hubungi admin jika ada pertanyaan."
	topUpRejectedAdmin    = "❌ *Top-up Ditolak*\n\nPermintaan dari: *{store}*\nJumlah: *{amount} token*\n\nStatus berhasil diperbarui. Tidak ada perubahan pada saldo toko."

	dailySummary = "📊 *Ringkasan Harian {store}*\n\nTanggal: {date}\nTotal Pendapatan: *Rp {revenue}*\nJumlah Transaksi: *{count}*\n\nTerima kasih telah menggunakan Chika POS!"

	followUp = "Halo tim {store}!\n\nKami ingin mengajak Anda mencoba dua fitur unggulan Chika POS:\n\n1. *Katalog Publik*: etalase digital dengan link unik untuk toko Anda, tanpa perlu coding.\n2. *Asisten AI*: siap membantu 24/7 menjawab pertanyaan bisnis dan memberi ide-ide baru.{extra}\n\nYuk, coba sekarang dari dasbor Chika POS. Terima kasih!"
)

func TopUpRequestedAdmin(storeName string, amount int64) string {
	return util.RenderTemplate(topUpRequestedAdmin, map[string]string{
		"store":  storeName,
		"amount": util.FormatNumber(amount),
	})
}

// TopUpDecided returns the customer and admin-group texts for a decision.
func TopUpDecided(approved bool, userName, storeName string, amount int64) (customer, admin string) {
	vars := map[string]string{
		"user":   displayName(userName),
		"store":  storeName,
		"amount": util.FormatNumber(amount),
	}
	if approved {
		return util.RenderTemplate(topUpApprovedCustomer, vars), util.RenderTemplate(topUpApprovedAdmin, vars)
	}
	return util.RenderTemplate(topUpRejectedCustomer, vars), util.RenderTemplate(topUpRejectedAdmin, vars)
}

func DailySummary(storeName string, day time.Time, revenue, count int64) string {
	return util.RenderTemplate(dailySummary, map[string]string{
		"store":   storeName,
		"date":    util.FormatDateID(day),
		"revenue": util.FormatNumber(revenue),
		"count":   util.FormatNumber(count),
	})
}

// FollowUp is the static outreach draft. Category, when known, gets a line of its own.
func FollowUp(storeName, category string) string {
	extra := ""
	if c := strings.TrimSpace(category); c != "" {
		extra = "\n\nCocok sekali untuk usaha " + strings.ToLower(c) + " seperti toko Anda."
	}
	return util.RenderTemplate(followUp, map[string]string{
		"store": storeName,
		"extra": extra,
	})
}

func displayName(name string) string {
	if strings.TrimSpace(name) == "" {
		return fallbackUserName
	}
	return name
}
