package swf

import "fmt"

// Sound 是一段可直接落盘的 MP3 数据。
type Sound struct {
	ID   uint16
	Data []byte // 借用自 File 的 buffer
}

// mp3SeekSamples 是 MP3 SoundData 开头的 SeekSamples（s16）。
const mp3SeekSamples = 2

// Sounds 按 tag 顺序返回 MP3 格式的 DefineSound；其他格式跳过（经 warn 报告，可为 nil），不报错。
// 解码失败的 DefineSound 同样跳过。
func Sounds(tags []RawTag, warn func(Warning)) []Sound {
	var out []Sound
	for _, raw := range tags {
		if raw.Code != TagDefineSound {
			continue
		}
		t, err := Decode(raw)
		if err != nil {
			emit(warn, Warning{Kind: WarnSoundUnsupported, Code: raw.Code, Msg: err.Error()})
			continue
		}
		ds := t.(DefineSound)
		if ds.Format != SoundFormatMP3 {
			emit(warn, Warning{
				Kind: WarnSoundUnsupported,
				Code: raw.Code,
				Msg:  fmt.Sprintf("sound %d 格式 %d 不是 MP3，跳过", ds.SoundID, ds.Format),
			})
			continue
		}
		data := ds.SoundData
		if len(data) < mp3SeekSamples {
			data = data[:0]
		} else {
			data = data[mp3SeekSamples:]
		}
		out = append(out, Sound{ID: ds.SoundID, Data: data})
	}
	return out
}
